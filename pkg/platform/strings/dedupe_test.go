package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil input", in: nil, want: nil},
		{name: "comma separated values", in: []string{" DE,nl ", "de", ""}, want: []string{"de", "nl"}},
		{name: "only blanks", in: []string{" ", ",,"}, want: []string{}},
		{name: "order of first occurrence", in: []string{"fr", "IT", "fr", "es"}, want: []string{"fr", "it", "es"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrimLower(tt.in))
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "baby ear muffs", CollapseSpace("  baby   ear\tmuffs "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields built-in seed", func(t *testing.T) {
		reg, err := Load("")
		require.NoError(t, err)
		assert.Len(t, reg.ViolationTypes(), 4)
	})

	t.Run("file adds violation type and marketplace", func(t *testing.T) {
		path := writeSeedFile(t, `
marketplaces:
  - code: PL
    name: Amazon Poland
    country: Poland
    currency: PLN
    domain: amazon.pl
violation_types:
  - code: missing_manufacturer_address
    name: Missing manufacturer address
    description: No EU responsible person is listed
    base_severity: HIGH
    base_score: 20
`)
		reg, err := Load(path)
		require.NoError(t, err)

		m, err := reg.ResolveMarketplace("pl")
		require.NoError(t, err)
		assert.Equal(t, "PLN", m.Currency)

		vt, err := reg.ResolveViolationType("missing_manufacturer_address")
		require.NoError(t, err)
		assert.Equal(t, 20, vt.BaseScore)
		assert.Len(t, reg.ViolationTypes(), 5)
	})

	t.Run("verbatim repeat of a seeded type is accepted", func(t *testing.T) {
		path := writeSeedFile(t, `
violation_types:
  - code: other
    name: Other compliance issue
    description: Compliance issue not covered by a specific violation type
    base_severity: MEDIUM
    base_score: 10
`)
		_, err := Load(path)
		require.NoError(t, err)
	})

	t.Run("redefining a seeded type is rejected", func(t *testing.T) {
		path := writeSeedFile(t, `
violation_types:
  - code: other
    name: Other
    base_severity: LOW
    base_score: 1
`)
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidReferenceData)
	})

	t.Run("replacement thresholds must cover the range", func(t *testing.T) {
		path := writeSeedFile(t, `
action_thresholds:
  - {action: CLEAR, min_score: 0, max_score: 0}
  - {action: MONITOR, min_score: 1, max_score: 20}
  - {action: REVIEW, min_score: 21, max_score: 50}
  - {action: COMPLAINT_PACK, min_score: 51, max_score: 80}
`)
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrThresholdCoverage)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeSeedFile(t, "violation_kinds: []\n")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidReferenceData)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

package testutil

import "testing"

// Scenario, Given, When and Then name nested subtests so acceptance-style
// tests read as the behaviour they check.
func Scenario(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Scenario "+name, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("when "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("then "+desc, fn)
}

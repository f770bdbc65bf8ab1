package testutil

import "testing"

// Given, When, Then and And nest scenario steps as subtests, so a failure
// reads as the full scenario path in go test output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", desc, fn)
}

// And continues the previous step. It does not run if an earlier sibling
// step in the same scenario already failed.
func And(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	if t.Failed() {
		t.Skipf("And %s: skipped after earlier failure", desc)
	}
	step(t, "And", desc, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(keyword+" "+desc, fn)
}

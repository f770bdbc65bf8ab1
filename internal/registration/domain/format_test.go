package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("well-formed Tamil Nadu number passes without warnings", func(t *testing.T) {
		result := Validate("TN/23/Building/001234/2024", JurisdictionTamilNadu)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Error)
		assert.Empty(t, result.Warnings)
	})

	t.Run("surrounding whitespace and case are normalized", func(t *testing.T) {
		result := Validate("  p51800012345 ", JurisdictionMaharashtra)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Warnings)
	})

	hardFailures := []struct {
		name   string
		number string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"markup", "<script>"},
		{"quote", `P5180'0012345`},
		{"ampersand", "P518&00012345"},
		{"semicolon", "P5180;0012345"},
		{"too short", "P51"},
		{"too long", "P" + strings.Repeat("1", MaxRegistrationNumberLength)},
	}
	for _, tc := range hardFailures {
		t.Run("hard failure: "+tc.name, func(t *testing.T) {
			result := Validate(tc.number, JurisdictionMaharashtra)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Error)
		})
	}

	t.Run("pattern mismatch is a soft failure", func(t *testing.T) {
		result := Validate("ABC-12345", JurisdictionTamilNadu)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Error)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "Tamil Nadu")
	})

	t.Run("unknown jurisdiction skips the pattern check with a warning", func(t *testing.T) {
		result := Validate("ANY-FORMAT-123", Jurisdiction("Atlantis"))
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "not checked")
	})

	t.Run("deterministic", func(t *testing.T) {
		first := Validate("ABC-12345", JurisdictionKerala)
		second := Validate("ABC-12345", JurisdictionKerala)
		assert.Equal(t, first, second)
	})
}

func TestKnownPatternsAcceptTheirExamples(t *testing.T) {
	for j, rule := range jurisdictionRules {
		t.Run(string(j), func(t *testing.T) {
			result := Validate(rule.example, j)
			assert.True(t, result.Valid)
			assert.Empty(t, result.Warnings, "example %q should match", rule.example)
		})
	}
}

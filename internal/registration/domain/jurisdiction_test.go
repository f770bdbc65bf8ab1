package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJurisdiction(t *testing.T) {
	tests := []struct {
		input    string
		expected Jurisdiction
		known    bool
	}{
		{"", DefaultJurisdiction, true},
		{"Tamil Nadu", JurisdictionTamilNadu, true},
		{"tamil   nadu", JurisdictionTamilNadu, true},
		{"TN", JurisdictionTamilNadu, true},
		{"ka", JurisdictionKarnataka, true},
		{"NCT of Delhi", JurisdictionDelhi, true},
		{"Goa", Jurisdiction("Goa"), false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			j, err := ParseJurisdiction(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, j)
			assert.Equal(t, tc.known, j.IsKnown())
		})
	}

	t.Run("rejects unsafe text", func(t *testing.T) {
		_, err := ParseJurisdiction("<b>Goa</b>")
		assert.ErrorIs(t, err, ErrInvalidJurisdiction)
	})

	t.Run("rejects overlong text", func(t *testing.T) {
		_, err := ParseJurisdiction(strings.Repeat("a", maxJurisdictionLength+1))
		assert.ErrorIs(t, err, ErrInvalidJurisdiction)
	})
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryBuilder, c)

	c, err = ParseCategory(" Agent ")
	require.NoError(t, err)
	assert.Equal(t, CategoryAgent, c)

	_, err = ParseCategory("landlord")
	assert.Error(t, err)
}

func TestKnownJurisdictionsRoundTrip(t *testing.T) {
	known := KnownJurisdictions()
	require.Len(t, known, 13)
	for _, j := range known {
		parsed, err := ParseJurisdiction(strings.ToUpper(j.String()))
		require.NoError(t, err)
		assert.Equal(t, j, parsed)
		assert.True(t, parsed.IsKnown())
	}
}

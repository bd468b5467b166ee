package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("Sup3rSecr3t!", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, Compare(hash, "Sup3rSecr3t!"))
	assert.False(t, Compare(hash, "Sup3rSecr3t?"))
	assert.False(t, Compare(hash, ""))
}

func TestHashProducesDistinctSalts(t *testing.T) {
	h1, err := Hash("Sup3rSecr3t!", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := Hash("Sup3rSecr3t!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestIsStrong(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"valid minimal", "Aa1@aaaa", true},
		{"valid maximal length", "Aa1@aaaaaaaaaaaa", true},
		{"all special chars accepted", "Aa1@#$!%*?&aaaa", true},
		{"too short", "Aa1@aaa", false},
		{"too long", "Aa1@aaaaaaaaaaaaa", false},
		{"missing uppercase", "aa1@aaaa", false},
		{"missing lowercase", "AA1@AAAA", false},
		{"missing digit", "Aaa@aaaa", false},
		{"missing special", "Aa1aaaaa", false},
		{"space rejected", "Aa1@ aaaa", false},
		{"unlisted special rejected", "Aa1^aaaa", false},
		{"hash alone does not satisfy special", "Aa1#aaaa", false},
		{"hash permitted alongside a special", "Aa1@#aaa", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrong(tt.password))
		})
	}
}

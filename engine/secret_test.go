package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHashlock(t *testing.T) {
	// sha256("") is a fixed vector
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ComputeHashlock(nil))

	h := ComputeHashlock(testSecret)
	assert.Len(t, h, HashlockLength)
	assert.True(t, VerifySecret(testSecret, h))
}

func TestVerifySecret(t *testing.T) {
	h := ComputeHashlock(testSecret)

	tests := []struct {
		name     string
		secret   []byte
		hashlock string
		want     bool
	}{
		{"correct secret", testSecret, h, true},
		{"uppercase hashlock still verifies", testSecret, strings.ToUpper(h), true},
		{"wrong secret", []byte("nope"), h, false},
		{"truncated secret", testSecret[:16], h, false},
		{"empty hashlock", testSecret, "", false},
		{"short hashlock", testSecret, h[:32], false},
		{"non-hex hashlock", testSecret, strings.Repeat("z", 64), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySecret(tt.secret, tt.hashlock))
		})
	}
}

func TestValidateHashlock(t *testing.T) {
	require.NoError(t, ValidateHashlock(testHashlock))
	require.Error(t, ValidateHashlock(""))
	require.Error(t, ValidateHashlock(testHashlock[:40]))
	require.Error(t, ValidateHashlock(strings.Repeat("g", 64)))
}

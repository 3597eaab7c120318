package common

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	for _, size := range []int{0, 1, 16, 32} {
		s, err := MakeRandHexString(size)
		require.NoError(t, err)
		assert.Len(t, s, size*2)

		raw, err := hex.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, raw, size)
	}
}

func TestMakeRandHexString_SessionSecretsDiffer(t *testing.T) {
	seen := map[string]bool{}
	for range 8 {
		s, err := MakeRandHexString(32)
		require.NoError(t, err)
		assert.False(t, seen[s], "secret repeated")
		seen[s] = true
	}
}

func TestGenerateRandByteArray(t *testing.T) {
	salt := GenerateRandByteArray(16)
	nonce := GenerateRandByteArray(12)

	assert.Len(t, salt, 16)
	assert.Len(t, nonce, 12)
	assert.NotEqual(t, make([]byte, 16), salt, "all-zero salt")
	assert.False(t, bytes.Equal(salt[:12], nonce))
	assert.Empty(t, GenerateRandByteArray(0))
}

func TestWipeByteArray(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"derived key", bytes.Repeat([]byte{0xAB}, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.in
			assert.NotPanics(t, func() { WipeByteArray(tt.in) })
			for i, b := range view {
				assert.Zero(t, b, "byte %d", i)
			}
		})
	}
}

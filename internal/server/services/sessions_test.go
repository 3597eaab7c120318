package services

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_OpenKeyClose(t *testing.T) {
	s := NewSessionService(time.Minute)

	_, err := s.Key(1)
	require.ErrorIs(t, err, common.ErrSessionNotInitialized)

	raw := []byte{1, 2, 3}
	s.Open(1, raw)
	raw[0] = 9

	got, err := s.Key(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got, "stored key is a copy")

	got[1] = 9
	again, err := s.Key(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again, "returned key is a copy")

	require.NoError(t, s.Require(1))
	require.ErrorIs(t, s.Require(2), common.ErrSessionNotInitialized)
	assert.True(t, s.IsOpen(1))
	assert.False(t, s.IsOpen(2))

	s.Close(1)
	s.Close(1)
	_, err = s.Key(1)
	require.ErrorIs(t, err, common.ErrSessionNotInitialized)
}

func TestSessionService_Expires(t *testing.T) {
	s := NewSessionService(20 * time.Millisecond)
	s.Open(1, []byte{1})

	require.Eventually(t, func() bool { return !s.IsOpen(1) }, time.Second, 5*time.Millisecond)
}

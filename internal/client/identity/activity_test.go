package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActivityMonitor(t *testing.T) {
	now := time.Unix(0, 0)
	m := NewActivityMonitor(10 * time.Minute)
	m.now = func() time.Time { return now }
	m.Touch()

	assert.False(t, m.Inactive())

	now = now.Add(9 * time.Minute)
	assert.False(t, m.Inactive())

	now = now.Add(time.Minute)
	assert.True(t, m.Inactive())

	m.Touch()
	assert.False(t, m.Inactive())
}

func TestActivityMonitor_DefaultTimeout(t *testing.T) {
	assert.Equal(t, time.Hour, NewActivityMonitor(0).Timeout())
}

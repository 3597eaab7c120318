package identity

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
)

// ActivityMonitor reports a user as inactive once no activity has been
// recorded for the idle timeout.
type ActivityMonitor struct {
	timeout time.Duration
	now     func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewActivityMonitor starts the clock now; a non-positive timeout selects the
// default of one hour.
func NewActivityMonitor(timeout time.Duration) *ActivityMonitor {
	if timeout <= 0 {
		timeout = common.DefaultIdleTimeout
	}
	m := &ActivityMonitor{timeout: timeout, now: time.Now}
	m.last = m.now()
	return m
}

func (m *ActivityMonitor) Touch() {
	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
}

func (m *ActivityMonitor) Inactive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.last) >= m.timeout
}

func (m *ActivityMonitor) Timeout() time.Duration {
	return m.timeout
}

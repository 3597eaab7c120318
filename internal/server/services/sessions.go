package services

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/patrickmn/go-cache"
)

// SessionService caches the content key derived at init_session, per user.
// A key expires after ttl without use; every lookup extends it.
type SessionService struct {
	keys *cache.Cache
}

func NewSessionService(ttl time.Duration) *SessionService {
	keys := cache.New(ttl, ttl)
	keys.OnEvicted(func(_ string, v any) {
		if b, ok := v.([]byte); ok {
			common.WipeByteArray(b)
		}
	})
	return &SessionService{keys: keys}
}

func sessionKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Open stores key for userID, replacing an earlier one.
func (s *SessionService) Open(userID int64, key []byte) {
	s.keys.SetDefault(sessionKey(userID), append([]byte(nil), key...))
}

// Key returns a copy of the user's content key, or
// common.ErrSessionNotInitialized.
func (s *SessionService) Key(userID int64) ([]byte, error) {
	k := sessionKey(userID)
	v, ok := s.keys.Get(k)
	if !ok {
		return nil, common.ErrSessionNotInitialized
	}
	key := v.([]byte)
	s.keys.SetDefault(k, key)
	return append([]byte(nil), key...), nil
}

// Require fails with common.ErrSessionNotInitialized unless userID has a
// session, and extends it otherwise.
func (s *SessionService) Require(userID int64) error {
	k := sessionKey(userID)
	v, ok := s.keys.Get(k)
	if !ok {
		return common.ErrSessionNotInitialized
	}
	s.keys.SetDefault(k, v)
	return nil
}

func (s *SessionService) IsOpen(userID int64) bool {
	_, ok := s.keys.Get(sessionKey(userID))
	return ok
}

// Close forgets the key. Closing a missing session is a no-op.
func (s *SessionService) Close(userID int64) {
	s.keys.Delete(sessionKey(userID))
}

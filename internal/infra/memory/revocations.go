package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationList keeps signed-out token IDs until their expiry.
type RevocationList struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{clock: time.Now, revoked: make(map[string]time.Time)}
}

// NewRevocationListWithClock is test-only for deterministic expiry.
func NewRevocationListWithClock(clock func() time.Time) *RevocationList {
	return &RevocationList{clock: clock, revoked: make(map[string]time.Time)}
}

func (l *RevocationList) Revoke(_ context.Context, jti string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = until
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	if l.clock().After(until) {
		delete(l.revoked, jti)
		return false, nil
	}
	return true, nil
}

// Package results holds recent verdicts so the results view and the export
// endpoints can look them up after the submission request has returned.
package results

import (
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a verdict stays retrievable when no TTL is configured.
const DefaultTTL = 30 * time.Minute

// Store is an in-memory, expiring verdict holder. A verdict that has expired
// or was never stored behaves the same way: the caller sends the user back to
// the entry screen.
type Store struct {
	verdicts *cache.Cache
}

// NewStore creates a store whose entries expire after ttl. Expired entries are
// purged every two TTL periods.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{verdicts: cache.New(ttl, 2*ttl)}
}

// Put stores v under its ID, replacing any previous verdict with the same ID.
func (s *Store) Put(v domain.Verdict) {
	s.verdicts.Set(v.ID, v, cache.DefaultExpiration)
}

// Get returns the verdict for id, if it is still held.
func (s *Store) Get(id string) (domain.Verdict, bool) {
	item, found := s.verdicts.Get(id)
	if !found {
		return domain.Verdict{}, false
	}
	v, ok := item.(domain.Verdict)
	return v, ok
}

// Len reports the number of held verdicts, including expired ones not yet purged.
func (s *Store) Len() int {
	return s.verdicts.ItemCount()
}

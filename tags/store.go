package tags

import (
	"sync/atomic"
	"time"
)

// Store holds the current catalogue. Readers get the snapshot current at the time of the call
// and are never blocked by a rebuild
type Store struct {
	current       atomic.Pointer[Catalogue]
	defaultLocale string
	clock         Clock
}

// StoreOption defines an option for a Store
type StoreOption func(*Store)

// OptionStoreClock sets the clock used to timestamp catalogues
func OptionStoreClock(clock Clock) func(*Store) {
	return func(s *Store) {
		s.clock = clock
	}
}

// NewStore returns a new Store holding an empty catalogue
func NewStore(defaultLocale string, options ...StoreOption) (s *Store) {
	s = new(Store)
	s.defaultLocale = defaultLocale
	s.clock = SystemClock()

	for _, opt := range options {
		opt(s)
	}

	s.current.Store(NewCatalogue("", defaultLocale, time.Time{}, map[string][]*Tag{}))

	return s
}

// Snapshot returns the current catalogue
func (s *Store) Snapshot() *Catalogue {
	return s.current.Load()
}

// Rebuild replaces the whole catalogue with one built from the given tags. Categories absent
// from the new set are gone after the swap
func (s *Store) Rebuild(revision string, categories map[string][]*Tag) *Catalogue {
	c := NewCatalogue(revision, s.defaultLocale, s.clock.Now(), categories)
	s.current.Store(c)

	return c
}

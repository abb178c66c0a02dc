package monitor

import (
	"sort"
	"sync"
)

// Store holds the last known verdict per endpoint URL. It lives for the
// process lifetime; nothing is persisted across restarts.
type Store struct {
	mu       sync.RWMutex
	verdicts map[string]HealthVerdict
}

// NewStore creates an empty verdict store.
func NewStore() *Store {
	return &Store{verdicts: make(map[string]HealthVerdict)}
}

// Put records a verdict unless a newer one is already stored for the same
// URL. Out-of-order arrivals from concurrent passes never roll state back.
func (s *Store) Put(v HealthVerdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.verdicts[v.Endpoint.URL]; ok && prev.Timestamp.After(v.Timestamp) {
		return
	}
	s.verdicts[v.Endpoint.URL] = v
}

// Get returns the stored verdict for a URL, if any.
func (s *Store) Get(url string) (HealthVerdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[url]
	return v, ok
}

// Snapshot returns all stored verdicts ordered by endpoint name.
func (s *Store) Snapshot() []HealthVerdict {
	s.mu.RLock()
	out := make([]HealthVerdict, 0, len(s.verdicts))
	for _, v := range s.verdicts {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Endpoint.Name == out[j].Endpoint.Name {
			return out[i].Endpoint.URL < out[j].Endpoint.URL
		}
		return out[i].Endpoint.Name < out[j].Endpoint.Name
	})
	return out
}

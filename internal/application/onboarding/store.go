package onboarding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFlowTTL is how long an idle flow survives before the sweep drops it.
const DefaultFlowTTL = 30 * time.Minute

// FlowStore holds live flows in memory. Flows are session-scoped working
// state, never persisted; an abandoned flow is swept after its TTL and its
// debounce timer released.
type FlowStore struct {
	mu    sync.Mutex
	flows map[uuid.UUID]*Flow
	ttl   time.Duration
}

func NewFlowStore(ttl time.Duration) *FlowStore {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	return &FlowStore{
		flows: make(map[uuid.UUID]*Flow),
		ttl:   ttl,
	}
}

func (s *FlowStore) Put(f *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.flows[f.ID] = f
}

func (s *FlowStore) Get(id uuid.UUID) (*Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	f, ok := s.flows[id]
	return f, ok
}

// Delete removes the flow and releases its resources.
func (s *FlowStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flows[id]; ok {
		f.Close()
		delete(s.flows, id)
	}
}

func (s *FlowStore) sweepLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, f := range s.flows {
		f.mu.Lock()
		stale := f.touchedAt.Before(cutoff)
		f.mu.Unlock()
		if stale {
			f.Close()
			delete(s.flows, id)
		}
	}
}

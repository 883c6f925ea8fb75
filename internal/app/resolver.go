package app

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Resolver maps inbound stream ids to peer ids. Either half may arrive
// first: a stream seen before its mapping stays pending and resolves to
// domain.GuestPeer until RecordMapping upgrades it.
type Resolver struct {
	mu       sync.RWMutex
	mappings map[string]domain.PeerID
	pending  map[string]struct{}
}

func NewResolver() *Resolver {
	return &Resolver{
		mappings: make(map[string]domain.PeerID),
		pending:  make(map[string]struct{}),
	}
}

// RecordMapping stores streamID -> peerID and reports whether a stream that
// was already being shown under the fallback label got resolved.
func (r *Resolver) RecordMapping(streamID string, peerID domain.PeerID) (upgraded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[streamID] = peerID
	if _, ok := r.pending[streamID]; ok {
		delete(r.pending, streamID)
		upgraded = true
	}
	log.Debug().
		Str("module", "app.resolver").
		Str("stream_id", streamID).
		Str("peer_id", string(peerID)).
		Bool("upgraded", upgraded).
		Msg("track mapping")
	return upgraded
}

// Resolve returns the peer for streamID. Unknown streams fall back to
// domain.GuestPeer and are remembered as pending.
func (r *Resolver) Resolve(streamID string) (domain.PeerID, bool) {
	r.mu.RLock()
	id, ok := r.mappings[streamID]
	r.mu.RUnlock()
	if ok {
		return id, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok = r.mappings[streamID]; ok {
		return id, true
	}
	r.pending[streamID] = struct{}{}
	return domain.GuestPeer, false
}

// Lookup is Resolve without marking the stream pending.
func (r *Resolver) Lookup(streamID string) (domain.PeerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.mappings[streamID]
	return id, ok
}

// ForgetStream drops everything known about streamID.
func (r *Resolver) ForgetStream(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mappings, streamID)
	delete(r.pending, streamID)
}

// Forget drops every mapping pointing at peerID.
func (r *Resolver) Forget(peerID domain.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s, id := range r.mappings {
		if id == peerID {
			delete(r.mappings, s)
		}
	}
}

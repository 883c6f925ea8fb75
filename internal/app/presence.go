package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type PresenceMeta struct {
	Name   string `json:"name"`
	PhxRef string `json:"phx_ref,omitempty"`
}

type PresenceEntry struct {
	Metas []PresenceMeta `json:"metas"`
}

// PresenceState is the presence_state payload, keyed by peer id.
type PresenceState map[domain.PeerID]PresenceEntry

type PresenceDiff struct {
	Joins  PresenceState `json:"joins"`
	Leaves PresenceState `json:"leaves"`
}

// PresenceTracker keeps peer id -> metas. A peer is present while it has at
// least one meta; its label is the name of the first one.
type PresenceTracker struct {
	mu    sync.RWMutex
	peers map[domain.PeerID][]PresenceMeta
	view  core.View
}

func NewPresenceTracker(view core.View) *PresenceTracker {
	if view == nil {
		view = core.NopView{}
	}
	return &PresenceTracker{
		peers: make(map[domain.PeerID][]PresenceMeta),
		view:  view,
	}
}

// Sync replaces the whole mapping.
func (t *PresenceTracker) Sync(state PresenceState) {
	t.mu.Lock()
	t.peers = make(map[domain.PeerID][]PresenceMeta, len(state))
	for id, e := range state {
		if len(e.Metas) > 0 {
			t.peers[id] = append([]PresenceMeta(nil), e.Metas...)
		}
	}
	t.mu.Unlock()
	log.Debug().Str("module", "app.presence").Int("peers", len(state)).Msg("presence sync")
	t.publish()
}

// Join adds metas for id, creating the entry if needed.
func (t *PresenceTracker) Join(id domain.PeerID, metas ...PresenceMeta) {
	t.mu.Lock()
	t.join(id, metas)
	t.mu.Unlock()
	t.publish()
}

// Leave drops the given metas of id; with none given the peer is removed.
func (t *PresenceTracker) Leave(id domain.PeerID, metas ...PresenceMeta) {
	t.mu.Lock()
	t.leave(id, metas)
	t.mu.Unlock()
	t.publish()
}

// ApplyDiff applies joins before leaves and publishes once.
func (t *PresenceTracker) ApplyDiff(diff PresenceDiff) {
	t.mu.Lock()
	for id, e := range diff.Joins {
		t.join(id, e.Metas)
	}
	for id, e := range diff.Leaves {
		t.leave(id, e.Metas)
	}
	t.mu.Unlock()
	t.publish()
}

func (t *PresenceTracker) join(id domain.PeerID, metas []PresenceMeta) {
	if len(metas) == 0 {
		metas = []PresenceMeta{{}}
	}
	cur := t.peers[id]
	for _, m := range metas {
		replaced := false
		for i := range cur {
			if m.PhxRef != "" && cur[i].PhxRef == m.PhxRef {
				cur[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			cur = append(cur, m)
		}
	}
	t.peers[id] = cur
}

func (t *PresenceTracker) leave(id domain.PeerID, metas []PresenceMeta) {
	cur, ok := t.peers[id]
	if !ok {
		return
	}
	if len(metas) == 0 {
		delete(t.peers, id)
		return
	}
	gone := make(map[string]bool, len(metas))
	for _, m := range metas {
		gone[m.PhxRef] = true
	}
	kept := cur[:0]
	for _, m := range cur {
		if !gone[m.PhxRef] {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		delete(t.peers, id)
		return
	}
	t.peers[id] = kept
}

// publish pushes the count and every label. The view is called without the lock held.
func (t *PresenceTracker) publish() {
	list := t.Participants()
	t.view.ParticipantCount(len(list))
	for _, p := range list {
		t.view.ParticipantLabel(p.ID, p.Name)
	}
}

func (t *PresenceTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// Name returns the display name of id, if present.
func (t *PresenceTracker) Name(id domain.PeerID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	metas, ok := t.peers[id]
	if !ok {
		return "", false
	}
	return metas[0].Name, true
}

// Participants lists present peers sorted by id.
func (t *PresenceTracker) Participants() []domain.Participant {
	t.mu.RLock()
	out := make([]domain.Participant, 0, len(t.peers))
	for id, metas := range t.peers {
		out = append(out, domain.Participant{ID: id, Name: metas[0].Name})
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

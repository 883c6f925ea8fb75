package app

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/dkeye/Huddle/internal/core/coretest"
	"github.com/dkeye/Huddle/internal/core/mocks"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func meta(name, ref string) PresenceMeta { return PresenceMeta{Name: name, PhxRef: ref} }

func TestPresenceSyncRepublishesEveryLabel(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockView(ctrl)

	gomock.InOrder(
		view.EXPECT().ParticipantCount(2),
		view.EXPECT().ParticipantLabel(domain.PeerID("a"), "Ann"),
		view.EXPECT().ParticipantLabel(domain.PeerID("b"), "Bob"),
	)

	tr := NewPresenceTracker(view)
	tr.Sync(PresenceState{
		"a": {Metas: []PresenceMeta{meta("Ann", "1")}},
		"b": {Metas: []PresenceMeta{meta("Bob", "2")}},
	})
}

func TestPresenceLateNameCorrectsLabel(t *testing.T) {
	view := coretest.NewRecordingView()
	tr := NewPresenceTracker(view)

	tr.Join("a", meta("", "1"))
	assert.Equal(t, "", view.Label("a"))

	tr.Sync(PresenceState{"a": {Metas: []PresenceMeta{meta("Ann", "1")}}})
	assert.Equal(t, "Ann", view.Label("a"))
	assert.Equal(t, 1, view.Count())
}

func TestPresenceDiffJoinsThenLeaves(t *testing.T) {
	view := coretest.NewRecordingView()
	tr := NewPresenceTracker(view)
	tr.Sync(PresenceState{"a": {Metas: []PresenceMeta{meta("Ann", "1")}}})

	// Same peer reconnecting: new meta joins, old one leaves in one diff.
	tr.ApplyDiff(PresenceDiff{
		Joins:  PresenceState{"a": {Metas: []PresenceMeta{meta("Ann", "2")}}, "b": {Metas: []PresenceMeta{meta("Bob", "3")}}},
		Leaves: PresenceState{"a": {Metas: []PresenceMeta{meta("Ann", "1")}}},
	})
	assert.Equal(t, 2, tr.Count())
	assert.Equal(t, 2, view.Count())
	name, ok := tr.Name("a")
	require.True(t, ok)
	assert.Equal(t, "Ann", name)

	tr.ApplyDiff(PresenceDiff{Leaves: PresenceState{"a": {Metas: []PresenceMeta{meta("Ann", "2")}}}})
	assert.Equal(t, 1, view.Count())
	_, ok = tr.Name("a")
	assert.False(t, ok)
}

func TestPresenceLeaveUnknownIsHarmless(t *testing.T) {
	view := coretest.NewRecordingView()
	tr := NewPresenceTracker(view)
	tr.Leave("ghost")
	assert.Equal(t, 0, view.Count())
	tr.Join("a")
	tr.Leave("a")
	assert.Equal(t, 0, view.Count())
}

func TestPresenceCountMatchesCardinality(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	view := coretest.NewRecordingView()
	tr := NewPresenceTracker(view)
	model := map[domain.PeerID]map[string]bool{}

	for step := 0; step < 2000; step++ {
		id := domain.PeerID(fmt.Sprintf("p%d", rng.Intn(8)))
		ref := fmt.Sprintf("r%d", rng.Intn(3))
		switch rng.Intn(4) {
		case 0:
			tr.Join(id, meta(string(id), ref))
			if model[id] == nil {
				model[id] = map[string]bool{}
			}
			model[id][ref] = true
		case 1:
			tr.Leave(id, meta(string(id), ref))
			if refs := model[id]; refs != nil {
				delete(refs, ref)
				if len(refs) == 0 {
					delete(model, id)
				}
			}
		case 2:
			tr.ApplyDiff(PresenceDiff{Leaves: PresenceState{id: {}}})
			delete(model, id)
		case 3:
			state := PresenceState{}
			model = map[domain.PeerID]map[string]bool{}
			for i := 0; i < rng.Intn(5); i++ {
				pid := domain.PeerID(fmt.Sprintf("p%d", rng.Intn(8)))
				state[pid] = PresenceEntry{Metas: []PresenceMeta{meta(string(pid), "r0")}}
				model[pid] = map[string]bool{"r0": true}
			}
			tr.Sync(state)
		}
		require.Equal(t, len(model), view.Count(), "step %d", step)
		require.Equal(t, tr.Count(), view.Count(), "step %d", step)
	}
}

package coretest

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
)

// RecordingView is a core.View that keeps what it was told.
type RecordingView struct {
	mu     sync.Mutex
	count  int
	labels map[domain.PeerID]string
	feeds  map[string]domain.RemoteFeed
	shares []domain.SharedContent
	chats  []domain.ChatMessage
	ended  []error
	relab  int
}

func NewRecordingView() *RecordingView {
	return &RecordingView{
		labels: make(map[domain.PeerID]string),
		feeds:  make(map[string]domain.RemoteFeed),
	}
}

func (v *RecordingView) ParticipantCount(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count = n
}

func (v *RecordingView) ParticipantLabel(id domain.PeerID, name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.labels[id] = name
}

func (v *RecordingView) FeedAdded(f domain.RemoteFeed) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feeds[f.StreamID] = f
}

func (v *RecordingView) FeedRelabeled(f domain.RemoteFeed) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.relab++
	v.feeds[f.StreamID] = f
}

func (v *RecordingView) FeedRemoved(f domain.RemoteFeed) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.feeds, f.StreamID)
}

func (v *RecordingView) SharedContentChanged(c domain.SharedContent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shares = append(v.shares, c)
}

func (v *RecordingView) ChatReceived(m domain.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.chats = append(v.chats, m)
}

func (v *RecordingView) SessionEnded(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ended = append(v.ended, err)
}

func (v *RecordingView) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.count
}

func (v *RecordingView) Label(id domain.PeerID) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.labels[id]
}

func (v *RecordingView) Feed(streamID string) (domain.RemoteFeed, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.feeds[streamID]
	return f, ok
}

func (v *RecordingView) Feeds() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.feeds)
}

func (v *RecordingView) Relabels() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.relab
}

// Share is the last shared content reported, zero when none.
func (v *RecordingView) Share() domain.SharedContent {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.shares) == 0 {
		return domain.SharedContent{}
	}
	return v.shares[len(v.shares)-1]
}

func (v *RecordingView) Shares() []domain.SharedContent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.SharedContent(nil), v.shares...)
}

func (v *RecordingView) Chats() []domain.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.ChatMessage(nil), v.chats...)
}

func (v *RecordingView) Ended() []error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]error(nil), v.ended...)
}

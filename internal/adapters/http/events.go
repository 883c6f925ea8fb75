package http

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/olebedev/emitter"
)

const topicView = "view"

// Event is one session change as sent to SSE subscribers.
type Event struct {
	Name string
	Data any
}

// Broadcaster is a core.View that republishes everything on an event bus.
// Delivery is synchronous and in order; a subscriber whose buffer is full
// misses the event instead of stalling the session.
type Broadcaster struct {
	e *emitter.Emitter
}

func NewBroadcaster(capacity uint) *Broadcaster {
	return &Broadcaster{e: &emitter.Emitter{Cap: capacity}}
}

// Subscribe returns a stream of events and the function releasing it.
func (b *Broadcaster) Subscribe() (<-chan emitter.Event, func()) {
	ch := b.e.On(topicView, emitter.Skip, emitter.Sync)
	return ch, func() { b.e.Off(topicView, ch) }
}

func (b *Broadcaster) publish(name string, data any) {
	b.e.Emit(topicView, Event{Name: name, Data: data})
}

func (b *Broadcaster) ParticipantCount(n int) {
	b.publish("participants", gin.H{"count": n})
}

func (b *Broadcaster) ParticipantLabel(id domain.PeerID, name string) {
	b.publish("participant", domain.Participant{ID: id, Name: name})
}

func (b *Broadcaster) FeedAdded(f domain.RemoteFeed)     { b.publish("feed_added", f) }
func (b *Broadcaster) FeedRelabeled(f domain.RemoteFeed) { b.publish("feed_relabeled", f) }
func (b *Broadcaster) FeedRemoved(f domain.RemoteFeed)   { b.publish("feed_removed", f) }

func (b *Broadcaster) SharedContentChanged(c domain.SharedContent) {
	b.publish("share", c)
}

func (b *Broadcaster) ChatReceived(m domain.ChatMessage) {
	b.publish("chat", m)
}

func (b *Broadcaster) SessionEnded(err error) {
	b.publish("ended", gin.H{"message": core.UserMessage(err)})
}

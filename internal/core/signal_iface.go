package core

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Huddle/internal/domain"
)

// Handler receives the raw payload of one channel event.
type Handler func(payload json.RawMessage)

// SharedVideoSnapshot is the in-progress share reported in the join reply.
type SharedVideoSnapshot struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	URL    string `json:"url,omitempty"`
	Sender string `json:"sender,omitempty"`
}

type JoinResult struct {
	SharedVideo *SharedVideoSnapshot `json:"shared_video,omitempty"`
}

// SignalChannel abstracts the room-scoped signaling channel.
// Messages are delivered to handlers in send order, on a single goroutine.
type SignalChannel interface {
	// Join blocks until the server accepts or rejects the join.
	Join(ctx context.Context, room domain.RoomID, name string) (JoinResult, error)
	Push(event string, payload any) error
	On(event string, h Handler)
	// Trigger dispatches a synthetic inbound event to local handlers only.
	Trigger(event string, payload any) error
	// OnClose is called once when the channel dies for any reason other than Leave.
	OnClose(fn func(err error))
	Leave() error
}

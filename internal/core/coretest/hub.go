package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
)

// Hub relays share and chat events between fake channels the way the room server does.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*FakeChannel
	order    []string
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]*FakeChannel)}
}

// Channel returns a fake channel whose pushes are broadcast as peer name.
func (h *Hub) Channel(name string) *FakeChannel {
	ch := NewFakeChannel()
	ch.OnPush = func(event string, payload json.RawMessage) {
		h.route(name, event, payload)
	}
	h.mu.Lock()
	h.channels[name] = ch
	h.order = append(h.order, name)
	h.mu.Unlock()
	return ch
}

func (h *Hub) route(sender, event string, payload json.RawMessage) {
	switch event {
	case core.EventShareYoutube:
		var p struct {
			VideoID string `json:"video_id"`
		}
		if json.Unmarshal(payload, &p) == nil {
			h.broadcast(core.EventYoutubeShared, core.YoutubeSharedPayload{VideoID: p.VideoID, Sender: sender})
		}
	case core.EventShareDirect:
		var p struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(payload, &p) == nil {
			h.broadcast(core.EventDirectShared, core.DirectSharedPayload{URL: p.URL, Sender: sender})
		}
	case core.EventStopShare:
		h.broadcast(core.EventShareStopped, struct{}{})
	case core.EventNewMessage:
		var p core.BodyPayload
		if json.Unmarshal(payload, &p) == nil {
			h.broadcast(core.EventNewMessage, map[string]string{"body": p.Body, "name": sender})
		}
	}
}

func (h *Hub) broadcast(event string, payload any) {
	h.mu.Lock()
	chans := make([]*FakeChannel, 0, len(h.order))
	for _, name := range h.order {
		chans = append(chans, h.channels[name])
	}
	h.mu.Unlock()
	for _, ch := range chans {
		_ = ch.Deliver(event, payload)
	}
}

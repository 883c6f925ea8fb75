// Package coretest provides in-memory implementations of the core ports.
package coretest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Push is one message sent by the client.
type Push struct {
	Event   string
	Payload json.RawMessage
}

// FakeChannel is a core.SignalChannel that delivers inbound events synchronously.
type FakeChannel struct {
	mu       sync.Mutex
	handlers map[string][]core.Handler
	pushes   []Push
	onClose  func(error)
	closed   bool
	left     bool

	Room domain.RoomID
	Name string

	JoinResult core.JoinResult
	JoinErr    error
	// OnPush, when set, observes every successful push.
	OnPush func(event string, payload json.RawMessage)
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{handlers: make(map[string][]core.Handler)}
}

func (c *FakeChannel) Join(_ context.Context, room domain.RoomID, name string) (core.JoinResult, error) {
	c.mu.Lock()
	c.Room = room
	c.Name = name
	res, err := c.JoinResult, c.JoinErr
	if err != nil {
		c.closed = true
	}
	c.mu.Unlock()
	return res, err
}

func (c *FakeChannel) Push(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed || c.left {
		c.mu.Unlock()
		return core.ErrChannelClosed
	}
	c.pushes = append(c.pushes, Push{Event: event, Payload: raw})
	hook := c.OnPush
	c.mu.Unlock()

	if hook != nil {
		hook(event, raw)
	}
	return nil
}

func (c *FakeChannel) On(event string, h core.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

func (c *FakeChannel) Trigger(event string, payload any) error {
	return c.Deliver(event, payload)
}

// Deliver simulates an inbound server event.
func (c *FakeChannel) Deliver(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	hs := append([]core.Handler(nil), c.handlers[event]...)
	c.mu.Unlock()
	for _, h := range hs {
		h(raw)
	}
	return nil
}

func (c *FakeChannel) OnClose(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// Fail simulates a channel error or a server-side close.
func (c *FakeChannel) Fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	fn := c.onClose
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *FakeChannel) Leave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.left = true
	return nil
}

func (c *FakeChannel) Left() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left
}

// Disconnected reports whether the channel is no longer usable.
func (c *FakeChannel) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left || c.closed
}

func (c *FakeChannel) Pushes() []Push {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Push(nil), c.pushes...)
}

// Pushed returns the payloads pushed for event, in order.
func (c *FakeChannel) Pushed(event string) []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []json.RawMessage
	for _, p := range c.pushes {
		if p.Event == event {
			out = append(out, p.Payload)
		}
	}
	return out
}

package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
)

var ErrNotJoined = errors.New("channel not joined")

type channelState int

const (
	stateClosed channelState = iota
	stateJoining
	stateJoined
	stateLeaving
	stateErrored
)

// ReplyError is an error reply to a join.
type ReplyError struct {
	Response json.RawMessage
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("join replied with error: %s", string(e.Response))
}

// Channel is one Phoenix topic on a Socket. Handlers run on the socket read
// goroutine, in arrival order.
type Channel struct {
	socket *Socket
	topic  string
	params any

	mu       sync.Mutex
	state    channelState
	joinRef  string
	bindings map[string][]core.Handler
	replies  map[string]chan Reply
	onClose  func(error)
}

func newChannel(s *Socket, topic string, params any) *Channel {
	return &Channel{
		socket:   s,
		topic:    topic,
		params:   params,
		bindings: make(map[string][]core.Handler),
		replies:  make(map[string]chan Reply),
	}
}

func (c *Channel) Topic() string { return c.topic }

// Join sends phx_join and waits for the reply. The ok response is returned raw.
func (c *Channel) Join(ctx context.Context) (json.RawMessage, error) {
	payload, err := encodePayload(c.params)
	if err != nil {
		return nil, err
	}
	ref := c.socket.nextRef()
	wait := make(chan Reply, 1)

	c.mu.Lock()
	if c.state == stateJoined || c.state == stateJoining {
		c.mu.Unlock()
		return nil, errors.New("channel already joined")
	}
	c.state = stateJoining
	c.joinRef = ref
	c.replies[ref] = wait
	c.mu.Unlock()

	if err := c.socket.push(Message{JoinRef: ref, Ref: ref, Topic: c.topic, Event: EventJoin, Payload: payload}); err != nil {
		c.dropReply(ref)
		c.setState(stateErrored)
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.dropReply(ref)
		c.setState(stateErrored)
		return nil, ctx.Err()
	case <-c.socket.Done():
		c.dropReply(ref)
		if err := c.socket.Err(); err != nil {
			return nil, err
		}
		return nil, core.ErrChannelClosed
	case r := <-wait:
		if r.Status != StatusOK {
			c.setState(stateErrored)
			return nil, &ReplyError{Response: r.Response}
		}
		c.setState(stateJoined)
		return r.Response, nil
	}
}

func (c *Channel) Push(event string, payload any) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.state != stateJoined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	joinRef := c.joinRef
	c.mu.Unlock()

	return c.socket.push(Message{
		JoinRef: joinRef,
		Ref:     c.socket.nextRef(),
		Topic:   c.topic,
		Event:   event,
		Payload: raw,
	})
}

func (c *Channel) On(event string, h core.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[event] = append(c.bindings[event], h)
}

// Trigger runs local handlers as if event had arrived from the server.
func (c *Channel) Trigger(event string, payload any) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	c.trigger(event, raw)
	return nil
}

func (c *Channel) OnClose(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// Leave sends phx_leave and detaches the channel. OnClose is not called.
func (c *Channel) Leave() error {
	c.mu.Lock()
	joined := c.state == stateJoined
	joinRef := c.joinRef
	c.state = stateLeaving
	c.onClose = nil
	c.mu.Unlock()

	defer c.socket.remove(c)
	if !joined {
		return nil
	}
	return c.socket.push(Message{JoinRef: joinRef, Ref: c.socket.nextRef(), Topic: c.topic, Event: EventLeave})
}

func (c *Channel) setState(s channelState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Channel) dropReply(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.replies, ref)
}

func (c *Channel) dispatch(msg Message) {
	c.mu.Lock()
	joinRef := c.joinRef
	c.mu.Unlock()
	if msg.JoinRef != "" && msg.JoinRef != joinRef {
		c.socket.logger.Debug().Str("topic", c.topic).Str("event", msg.Event).Msg("stale message dropped")
		return
	}

	switch msg.Event {
	case EventReply:
		var r Reply
		if err := json.Unmarshal(msg.Payload, &r); err != nil {
			c.socket.logger.Error().Err(err).Str("topic", c.topic).Msg("bad reply")
			return
		}
		c.mu.Lock()
		wait, ok := c.replies[msg.Ref]
		delete(c.replies, msg.Ref)
		c.mu.Unlock()
		if ok {
			wait <- r
		}
	case EventError:
		c.close(fmt.Errorf("%w: channel error", core.ErrChannelClosed))
	case EventClose:
		c.close(fmt.Errorf("%w: closed by server", core.ErrChannelClosed))
	default:
		c.trigger(msg.Event, msg.Payload)
	}
}

func (c *Channel) trigger(event string, payload json.RawMessage) {
	c.mu.Lock()
	hs := append([]core.Handler(nil), c.bindings[event]...)
	c.mu.Unlock()
	for _, h := range hs {
		h(payload)
	}
}

func (c *Channel) socketClosed(err error) {
	if err == nil {
		err = core.ErrChannelClosed
	}
	c.close(err)
}

func (c *Channel) close(err error) {
	c.mu.Lock()
	if c.state == stateClosed || c.state == stateLeaving {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	fn := c.onClose
	c.onClose = nil
	c.mu.Unlock()

	c.socket.remove(c)
	if fn != nil {
		fn(err)
	}
}

package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrRateLimited = errors.New("rate limited")

// RoomChannel is the room-scoped core.SignalChannel on top of a Socket.
type RoomChannel struct {
	socket  *Socket
	limiter *PushRateLimiter
	limited map[string]bool

	mu       sync.Mutex
	ch       *Channel
	bindings map[string][]core.Handler
	onClose  func(error)
}

// NewRoomChannel wraps socket. Pushes of limitedEvents go through limiter.
func NewRoomChannel(socket *Socket, limiter *PushRateLimiter, limitedEvents ...string) *RoomChannel {
	limited := make(map[string]bool, len(limitedEvents))
	for _, e := range limitedEvents {
		limited[e] = true
	}
	return &RoomChannel{
		socket:   socket,
		limiter:  limiter,
		limited:  limited,
		bindings: make(map[string][]core.Handler),
	}
}

func (r *RoomChannel) Join(ctx context.Context, room domain.RoomID, name string) (core.JoinResult, error) {
	ch := r.socket.Channel(room.Topic(), map[string]string{"name": name})

	r.mu.Lock()
	r.ch = ch
	for event, hs := range r.bindings {
		for _, h := range hs {
			ch.On(event, h)
		}
	}
	r.mu.Unlock()

	ch.OnClose(r.closed)

	log.Info().Str("module", "signal").Str("topic", ch.Topic()).Msg("joining")
	resp, err := ch.Join(ctx)
	if err != nil {
		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			err = &core.JoinError{Reason: joinReason(replyErr.Response)}
		}
		// A failed join leaves nothing worth keeping on the socket.
		r.socket.Disconnect()
		log.Warn().Err(err).Str("module", "signal").Str("topic", ch.Topic()).Msg("join failed")
		return core.JoinResult{}, err
	}

	var res core.JoinResult
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &res); err != nil {
			log.Warn().Err(err).Str("module", "signal").Msg("join response not understood")
			res = core.JoinResult{}
		}
	}
	log.Info().Str("module", "signal").Str("topic", ch.Topic()).Msg("joined")
	return res, nil
}

// joinReason accepts {"reason": "..."} as well as a bare string.
func joinReason(resp json.RawMessage) string {
	var withReason struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp, &withReason); err == nil && withReason.Reason != "" {
		return withReason.Reason
	}
	var bare string
	if err := json.Unmarshal(resp, &bare); err == nil {
		return bare
	}
	return ""
}

func (r *RoomChannel) channel() *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch
}

func (r *RoomChannel) Push(event string, payload any) error {
	ch := r.channel()
	if ch == nil {
		return ErrNotJoined
	}
	if r.limited[event] && !r.limiter.Allow(event) {
		return fmt.Errorf("%s: %w", event, ErrRateLimited)
	}
	return ch.Push(event, payload)
}

func (r *RoomChannel) On(event string, h core.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[event] = append(r.bindings[event], h)
	if r.ch != nil {
		r.ch.On(event, h)
	}
}

func (r *RoomChannel) Trigger(event string, payload any) error {
	ch := r.channel()
	if ch == nil {
		return ErrNotJoined
	}
	return ch.Trigger(event, payload)
}

func (r *RoomChannel) OnClose(fn func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

func (r *RoomChannel) closed(err error) {
	r.socket.Close(err)
	r.mu.Lock()
	fn := r.onClose
	r.onClose = nil
	r.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Leave leaves the room and disconnects the socket.
func (r *RoomChannel) Leave() error {
	r.mu.Lock()
	r.onClose = nil
	ch := r.ch
	r.mu.Unlock()

	var err error
	if ch != nil {
		err = ch.Leave()
	}
	r.socket.Disconnect()
	return err
}

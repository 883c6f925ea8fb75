package signal

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrSocketClosed     = errors.New("socket closed")
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
)

type Options struct {
	Heartbeat  time.Duration
	SendBuffer int
	WriteWait  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Heartbeat <= 0 {
		o.Heartbeat = 30 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	return o
}

// Socket multiplexes Phoenix channels over one websocket.
// A dead socket is never reopened: every channel on it is closed with the cause.
type Socket struct {
	conn   WSConn
	opts   Options
	send   chan []byte
	ref    atomic.Uint64
	cancel context.CancelFunc
	done   chan struct{}
	logger zerolog.Logger

	shutdownOnce sync.Once

	mu               sync.RWMutex
	channels         map[string]*Channel
	pendingHeartbeat string
	closed           bool
	err              error
}

// Dial connects to the signaling server and starts the socket.
func Dial(ctx context.Context, serverURL string, opts Options, dial Dialer) (*Socket, error) {
	if dial == nil {
		dial = DialWebsocket
	}
	endpoint, err := SocketURL(serverURL)
	if err != nil {
		return nil, err
	}
	conn, err := dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "signal").Str("url", endpoint).Msg("socket connected")
	s := NewSocket(conn, opts)
	s.Start(context.WithoutCancel(ctx))
	return s, nil
}

func NewSocket(conn WSConn, opts Options) *Socket {
	opts = opts.withDefaults()
	return &Socket{
		conn:     conn,
		opts:     opts,
		send:     make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
		channels: make(map[string]*Channel),
		logger:   log.With().Str("module", "signal").Logger(),
	}
}

func (s *Socket) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.writePump(ctx)
	go s.readPump(ctx)
	go s.heartbeatLoop(ctx)
}

func (s *Socket) nextRef() string {
	return strconv.FormatUint(s.ref.Add(1), 10)
}

// Channel registers a channel for topic. Joining is left to the caller.
func (s *Socket) Channel(topic string, params any) *Channel {
	ch := newChannel(s, topic, params)
	s.mu.Lock()
	s.channels[topic] = ch
	s.mu.Unlock()
	return ch
}

func (s *Socket) remove(ch *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels[ch.topic] == ch {
		delete(s.channels, ch.topic)
	}
}

func (s *Socket) push(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.trySend(data)
}

func (s *Socket) trySend(data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSocketClosed
	}
	select {
	case s.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (s *Socket) Done() <-chan struct{} { return s.done }

// Err is the reason the socket died, nil after a clean Disconnect.
func (s *Socket) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close tears the socket down and closes every channel with err.
func (s *Socket) Close(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	chans := make([]*Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		chans = append(chans, ch)
	}
	s.channels = make(map[string]*Channel)
	s.mu.Unlock()

	s.shutdown()
	if err != nil {
		s.logger.Warn().Err(err).Msg("socket closed")
	}
	for _, ch := range chans {
		ch.socketClosed(err)
	}
}

// Disconnect flushes queued frames and closes without notifying channels.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.channels = make(map[string]*Channel)
	s.mu.Unlock()

	select {
	case s.send <- nil:
		time.AfterFunc(s.opts.WriteWait, s.shutdown)
	default:
		s.shutdown()
	}
}

func (s *Socket) shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		_ = s.conn.Close()
		s.logger.Info().Msg("socket shut down")
	})
}

func (s *Socket) dispatch(msg Message) {
	if msg.Topic == TopicPhoenix {
		if msg.Event == EventReply {
			s.mu.Lock()
			if msg.Ref == s.pendingHeartbeat {
				s.pendingHeartbeat = ""
			}
			s.mu.Unlock()
		}
		return
	}
	s.mu.RLock()
	ch := s.channels[msg.Topic]
	s.mu.RUnlock()
	if ch == nil {
		s.logger.Debug().Str("topic", msg.Topic).Str("event", msg.Event).Msg("message for unknown topic")
		return
	}
	ch.dispatch(msg)
}

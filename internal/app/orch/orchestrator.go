package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/peer"
	"github.com/dkeye/Huddle/internal/app/share"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrRoomRequired = errors.New("room required")

// Deps are the collaborators of one room membership.
type Deps struct {
	// ID names the session in logs; generated when empty.
	ID string

	Channel   core.SignalChannel
	Transport core.Transport
	Devices   core.MediaDevices
	View      core.View

	Restart        app.RestartPolicy
	RestartTimeout time.Duration
	RestartOffer   bool
}

// Session is everything that exists between joining a room and leaving it.
type Session struct {
	ID   string
	Room domain.RoomID
	Name string

	Peer     *peer.Manager
	Share    *share.Coordinator
	Presence *app.PresenceTracker
	Resolver *app.Resolver

	channel core.SignalChannel
	view    core.View
	logger  zerolog.Logger
	done    chan struct{}
	endOnce sync.Once

	mu    sync.Mutex
	feeds map[string]domain.RemoteFeed
	err   error
}

func NewSession(room domain.RoomID, name string, deps Deps) (*Session, error) {
	if room == "" {
		return nil, ErrRoomRequired
	}
	name, err := domain.ValidateName(name)
	if err != nil {
		return nil, err
	}
	view := deps.View
	if view == nil {
		view = core.NopView{}
	}

	id := deps.ID
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:       id,
		Room:     room,
		Name:     name,
		channel:  deps.Channel,
		view:     view,
		Presence: app.NewPresenceTracker(view),
		Resolver: app.NewResolver(),
		done:     make(chan struct{}),
		feeds:    make(map[string]domain.RemoteFeed),
	}
	s.logger = log.With().Str("module", "app.orch").Str("sid", s.ID).Str("room", string(room)).Logger()
	s.Peer = peer.NewManager(s.ID, deps.Transport, deps.Channel, deps.Devices, s, peer.Options{
		Restart:          deps.Restart,
		RestartTimeout:   deps.RestartTimeout,
		PushRestartOffer: deps.RestartOffer,
	})
	s.Share = share.NewCoordinator(s.ID, deps.Channel, deps.Devices, s.Peer, view)
	return s, nil
}

// Join captures local media, joins the room and replays any share already
// in progress. On failure everything acquired so far is released and the
// view is told why.
func Join(ctx context.Context, room domain.RoomID, name string, deps Deps) (*Session, error) {
	s, err := NewSession(room, name, deps)
	if err != nil {
		return nil, err
	}
	if err := s.Join(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Join(ctx context.Context) error {
	if _, err := s.Peer.AcquireLocalMedia(ctx); err != nil {
		s.logger.Error().Err(err).Msg("local media unavailable")
		s.end(err)
		return err
	}

	s.Peer.Bind()
	s.Share.Bind()
	s.bindRoom()
	s.channel.OnClose(s.onChannelClosed)

	res, err := s.channel.Join(ctx, s.Room, s.Name)
	if err != nil {
		s.logger.Error().Err(err).Msg("unable to join the room")
		s.end(err)
		return err
	}
	s.logger.Info().Str("name", s.Name).Msg("joined room")
	s.replaySharedVideo(res)
	return nil
}

func (s *Session) onChannelClosed(err error) {
	if err == nil {
		err = core.ErrChannelClosed
	}
	if !errors.Is(err, core.ErrChannelClosed) {
		err = fmt.Errorf("%w: %v", core.ErrChannelClosed, err)
	}
	s.logger.Error().Err(err).Msg("signaling lost")
	s.end(err)
}

// TransportLost implements peer.Events.
func (s *Session) TransportLost(err error) {
	s.logger.Error().Err(err).Msg("transport lost")
	s.end(err)
}

// Leave ends the session on user request.
func (s *Session) Leave() {
	s.end(core.ErrSessionClosed)
}

// end tears the session down once: capture stopped, transport closed,
// channel left. Handlers still in flight see a closed session afterwards.
func (s *Session) end(cause error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.feeds = make(map[string]domain.RemoteFeed)
		s.mu.Unlock()
		close(s.done)

		s.Share.Close()
		s.Peer.Close()
		if err := s.channel.Leave(); err != nil {
			s.logger.Debug().Err(err).Msg("leave channel")
		}

		if errors.Is(cause, core.ErrSessionClosed) {
			s.logger.Info().Msg("left room")
		} else {
			s.logger.Warn().Err(cause).Str("message", core.UserMessage(cause)).Msg("session ended")
		}
		s.view.SessionEnded(cause)
	})
}

func (s *Session) Done() <-chan struct{} { return s.done }

// Err is why the session ended, nil while it is running.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

type Snapshot struct {
	SessionID    string               `json:"session_id"`
	Room         domain.RoomID        `json:"room"`
	Name         string               `json:"name"`
	PeerState    string               `json:"peer_state"`
	Participants []domain.Participant `json:"participants"`
	Feeds        []domain.RemoteFeed  `json:"feeds"`
	ShareMode    string               `json:"share_mode"`
	Share        domain.SharedContent `json:"share"`
	AudioEnabled bool                 `json:"audio_enabled"`
	VideoEnabled bool                 `json:"video_enabled"`
	Ended        bool                 `json:"ended"`
	Message      string               `json:"message,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	mode, content := s.Share.State()
	snap := Snapshot{
		SessionID:    s.ID,
		Room:         s.Room,
		Name:         s.Name,
		PeerState:    s.Peer.State().String(),
		Participants: s.Presence.Participants(),
		Feeds:        s.Feeds(),
		ShareMode:    mode.String(),
		Share:        content,
		Ended:        s.ended(),
	}
	local := s.Peer.LocalStream()
	for _, t := range local.AudioTracks() {
		snap.AudioEnabled = snap.AudioEnabled || t.Enabled()
	}
	for _, t := range local.VideoTracks() {
		snap.VideoEnabled = snap.VideoEnabled || t.Enabled()
	}
	if err := s.Err(); err != nil {
		snap.Message = core.UserMessage(err)
	}
	return snap
}

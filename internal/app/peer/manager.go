package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Events is what the manager reports upwards.
type Events interface {
	RemoteVideo(track core.RemoteTrack)
	RemoteVideoEnded(track core.RemoteTrack)
	// TransportLost is reported once the restart budget is spent.
	TransportLost(err error)
}

type Options struct {
	Restart app.RestartPolicy
	// RestartTimeout is how long a restart may stay unresolved before the next one.
	RestartTimeout time.Duration
	// PushRestartOffer sends the restart offer to the server as sdp_offer.
	// Otherwise the renewed credentials wait for the next server offer.
	PushRestartOffer bool
}

// Manager owns the single transport of a room membership.
type Manager struct {
	transport core.Transport
	channel   core.SignalChannel
	devices   core.MediaDevices
	events    Events
	policy    app.RestartPolicy
	timeout   time.Duration
	pushOffer bool
	logger    zerolog.Logger
	done      chan struct{}

	// negMu keeps at most one offer/answer cycle in flight.
	negMu sync.Mutex

	mu               sync.Mutex
	state            State
	local            *core.LocalStream
	localTracksAdded bool
	restartTimer     *time.Timer
	watchdog         *time.Timer
	closeOnce        sync.Once
}

func NewManager(
	sid string,
	transport core.Transport,
	channel core.SignalChannel,
	devices core.MediaDevices,
	events Events,
	opts Options,
) *Manager {
	if opts.Restart == nil {
		opts.Restart = app.NewBackoffPolicy(app.RestartConfig{})
	}
	if opts.RestartTimeout <= 0 {
		opts.RestartTimeout = 15 * time.Second
	}
	m := &Manager{
		transport: transport,
		channel:   channel,
		devices:   devices,
		events:    events,
		policy:    opts.Restart,
		timeout:   opts.RestartTimeout,
		pushOffer: opts.PushRestartOffer,
		logger:    log.With().Str("module", "app.peer").Str("sid", sid).Logger(),
		done:      make(chan struct{}),
	}
	transport.OnICECandidate(m.onLocalCandidate)
	transport.OnTrack(m.onTrack)
	transport.OnConnectionStateChange(m.onConnectionState)
	return m
}

// Bind subscribes the manager to its signaling events.
func (m *Manager) Bind() {
	m.channel.On(core.EventSDPOffer, m.handleBody("offer", m.HandleOffer))
	m.channel.On(core.EventSDPAnswer, m.handleBody("answer", m.HandleAnswer))
	m.channel.On(core.EventICECandidate, m.handleBody("candidate", m.HandleRemoteCandidate))
}

func (m *Manager) handleBody(what string, fn func(string) error) core.Handler {
	return func(payload json.RawMessage) {
		var p core.BodyPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			m.logger.Error().Err(err).Str("kind", what).Msg("bad payload")
			return
		}
		if err := fn(p.Body); err != nil && !errors.Is(err, core.ErrSessionClosed) {
			m.logger.Error().Err(err).Str("kind", what).Msg("signal handling failed")
		}
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	if prev != StateClosed {
		m.state = s
	}
	m.mu.Unlock()
	if prev != s && prev != StateClosed {
		m.logger.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("state")
	}
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// AcquireLocalMedia captures camera and microphone once per session.
func (m *Manager) AcquireLocalMedia(ctx context.Context) (*core.LocalStream, error) {
	m.mu.Lock()
	if m.local != nil {
		local := m.local
		m.mu.Unlock()
		return local, nil
	}
	m.mu.Unlock()

	m.setState(StateGatheringLocalMedia)
	stream, err := m.devices.UserMedia(ctx)
	if err != nil {
		m.setState(StateFailed)
		if !errors.Is(err, core.ErrMediaUnavailable) {
			err = fmt.Errorf("%w: %v", core.ErrMediaUnavailable, err)
		}
		return nil, err
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		stream.Stop()
		return nil, core.ErrSessionClosed
	}
	m.local = stream
	m.mu.Unlock()

	m.setState(StateAwaitingOffer)
	m.logger.Info().Int("tracks", len(stream.Tracks)).Msg("local media ready")
	return stream, nil
}

func (m *Manager) LocalStream() *core.LocalStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local
}

// HandleOffer applies a server offer and pushes the answer. Local tracks are
// attached on the first offer only. A restart offer of ours still waiting
// for its answer loses to the server offer.
func (m *Manager) HandleOffer(sdp string) error {
	m.negMu.Lock()
	defer m.negMu.Unlock()
	if m.isClosed() {
		return core.ErrSessionClosed
	}

	rolledBack, err := m.transport.Rollback()
	if err != nil {
		return fmt.Errorf("rollback local offer: %w", err)
	}
	if rolledBack {
		m.logger.Info().Msg("local restart offer dropped for server offer")
	}
	if m.State() != StateRestarting {
		m.setState(StateNegotiating)
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := m.transport.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote offer: %w", err)
	}
	if err := m.attachLocalTracks(); err != nil {
		return err
	}
	answer, err := m.transport.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := m.transport.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local answer: %w", err)
	}
	if ld := m.transport.LocalDescription(); ld != nil {
		answer = *ld
	}
	if m.isClosed() {
		return core.ErrSessionClosed
	}
	if err := m.channel.Push(core.EventSDPAnswer, core.BodyPayload{Body: answer.SDP}); err != nil {
		return fmt.Errorf("push answer: %w", err)
	}
	if m.transport.ConnectionState() == webrtc.PeerConnectionStateConnected {
		m.setState(StateConnected)
	}
	m.logger.Info().Msg("offer applied, answer sent")
	return nil
}

func (m *Manager) attachLocalTracks() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.localTracksAdded {
		return nil
	}
	if m.local == nil {
		m.logger.Warn().Msg("offer before local media, answering receive-only")
		return nil
	}
	for _, t := range m.local.Tracks {
		if _, err := m.transport.AddTrack(t.Local()); err != nil {
			return fmt.Errorf("add %s track: %w", t.Kind(), err)
		}
	}
	m.localTracksAdded = true
	m.logger.Info().Int("tracks", len(m.local.Tracks)).Msg("local tracks attached")
	return nil
}

// HandleAnswer applies the server answer to an ICE restart offer.
func (m *Manager) HandleAnswer(sdp string) error {
	m.negMu.Lock()
	defer m.negMu.Unlock()
	if m.isClosed() {
		return core.ErrSessionClosed
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := m.transport.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	return nil
}

// HandleRemoteCandidate applies a trickled candidate whenever it arrives.
func (m *Manager) HandleRemoteCandidate(body string) error {
	if m.isClosed() {
		return core.ErrSessionClosed
	}
	var c webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}
	return m.transport.AddICECandidate(c)
}

func (m *Manager) onLocalCandidate(c *webrtc.ICECandidateInit) {
	if c == nil {
		m.logger.Debug().Msg("gathering candidates complete")
		return
	}
	if m.isClosed() {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		m.logger.Error().Err(err).Msg("marshal candidate")
		return
	}
	if err := m.channel.Push(core.EventICECandidate, core.BodyPayload{Body: string(raw)}); err != nil {
		m.logger.Warn().Err(err).Msg("push candidate")
	}
}

func (m *Manager) onTrack(t core.RemoteTrack) {
	if m.isClosed() {
		return
	}
	if t.Kind() != webrtc.RTPCodecTypeVideo {
		m.logger.Debug().Str("track_id", t.ID()).Msg("remote audio track")
		return
	}
	m.events.RemoteVideo(t)
	go func() {
		select {
		case <-t.Done():
			if !m.isClosed() {
				m.events.RemoteVideoEnded(t)
			}
		case <-m.done:
		}
	}()
}

// VideoSender is the send slot currently carrying video, nil before the
// first offer.
func (m *Manager) VideoSender() core.Sender {
	for _, s := range m.transport.Senders() {
		if tr := s.Track(); tr != nil && tr.Kind() == webrtc.RTPCodecTypeVideo {
			return s
		}
	}
	return nil
}

func (m *Manager) ToggleAudio() bool { return m.toggle(webrtc.RTPCodecTypeAudio) }

func (m *Manager) ToggleVideo() bool { return m.toggle(webrtc.RTPCodecTypeVideo) }

// toggle flips every local track of kind and returns the new state.
func (m *Manager) toggle(kind webrtc.RTPCodecType) bool {
	m.mu.Lock()
	local := m.local
	m.mu.Unlock()

	enabled := false
	tracks := local.VideoTracks()
	if kind == webrtc.RTPCodecTypeAudio {
		tracks = local.AudioTracks()
	}
	for _, t := range tracks {
		t.SetEnabled(!t.Enabled())
		enabled = t.Enabled()
	}
	m.logger.Info().Str("kind", kind.String()).Bool("enabled", enabled).Msg("local track toggled")
	return enabled
}

// Close stops local media and releases the transport, once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.state = StateClosed
		m.stopTimersLocked()
		local := m.local
		m.mu.Unlock()
		close(m.done)

		local.Stop()
		if err := m.transport.Close(); err != nil {
			m.logger.Error().Err(err).Msg("transport close")
		}
		m.logger.Info().Msg("peer closed")
	})
}

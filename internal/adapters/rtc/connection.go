package rtc

import (
	"context"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WebRTCConnection is the pion backed core.Transport.
type WebRTCConnection struct {
	pc     *webrtc.PeerConnection
	sid    string
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	onICE   func(*webrtc.ICECandidateInit)
	onTrack func(core.RemoteTrack)
	onState func(webrtc.PeerConnectionState)
	feeds   []*remoteTrack
}

func NewWebRTCConnection(cfg webrtc.Configuration, sid string) (*WebRTCConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &WebRTCConnection{
		pc:     pc,
		sid:    sid,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With().Str("module", "webrtc").Str("sid", sid).Logger(),
	}
	c.start()
	return c, nil
}

func (c *WebRTCConnection) start() {
	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		c.logger.Info().Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnICEGatheringStateChange(func(s webrtc.ICEGatheringState) {
		c.logger.Debug().Str("gathering_state", s.String()).Msg("Gathering state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		c.mu.RLock()
		fn := c.onState
		c.mu.RUnlock()
		if fn != nil {
			fn(s)
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		c.mu.RLock()
		fn := c.onICE
		c.mu.RUnlock()
		if fn == nil {
			return
		}
		if cand == nil {
			fn(nil)
			return
		}
		init := cand.ToJSON()
		fn(&init)
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		c.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")

		rt := newRemoteTrack(track)
		c.mu.Lock()
		c.feeds = append(c.feeds, rt)
		fn := c.onTrack
		c.mu.Unlock()

		go rt.loop(c.ctx, &c.logger)
		if fn != nil {
			fn(rt)
		}
	})
}

func (c *WebRTCConnection) SetRemoteDescription(sd webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(sd)
}

func (c *WebRTCConnection) CreateAnswer() (webrtc.SessionDescription, error) {
	return c.pc.CreateAnswer(nil)
}

func (c *WebRTCConnection) SetLocalDescription(sd webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(sd)
}

func (c *WebRTCConnection) LocalDescription() *webrtc.SessionDescription {
	return c.pc.LocalDescription()
}

// RestartICE creates an offer with fresh ICE credentials and applies it locally.
func (c *WebRTCConnection) RestartICE() (webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(&webrtc.OfferOptions{ICERestart: true})
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	c.logger.Info().Msg("ICE restart offer created")
	return offer, nil
}

// Rollback returns to stable when a local offer is still waiting for its answer.
// The renewed ICE credentials survive and go out with the next answer.
func (c *WebRTCConnection) Rollback() (bool, error) {
	if c.pc.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		return false, nil
	}
	pending := c.pc.PendingLocalDescription()
	if pending == nil {
		return false, nil
	}
	rollback := webrtc.SessionDescription{Type: webrtc.SDPTypeRollback, SDP: pending.SDP}
	if err := c.pc.SetLocalDescription(rollback); err != nil {
		return false, err
	}
	c.logger.Info().Msg("pending local offer rolled back")
	return true, nil
}

func (c *WebRTCConnection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

// AddTrack attaches a local track and drains RTCP for its sender.
func (c *WebRTCConnection) AddTrack(track webrtc.TrackLocal) (core.Sender, error) {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return nil, err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return sender, nil
}

func (c *WebRTCConnection) Senders() []core.Sender {
	senders := c.pc.GetSenders()
	out := make([]core.Sender, 0, len(senders))
	for _, s := range senders {
		out = append(out, s)
	}
	return out
}

func (c *WebRTCConnection) ConnectionState() webrtc.PeerConnectionState {
	return c.pc.ConnectionState()
}

func (c *WebRTCConnection) OnICECandidate(fn func(*webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

// OnTrack sets application-level callback for remote tracks.
func (c *WebRTCConnection) OnTrack(fn func(core.RemoteTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *WebRTCConnection) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Stats returns a snapshot of every inbound track seen so far.
func (c *WebRTCConnection) Stats() []FeedStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FeedStats, 0, len(c.feeds))
	for _, f := range c.feeds {
		out = append(out, f.Stats())
	}
	return out
}

func (c *WebRTCConnection) Close() error {
	c.cancel()
	err := c.pc.Close()
	if err != nil {
		c.logger.Error().Err(err).Msg("close error")
	} else {
		c.logger.Info().Msg("closed")
	}
	return err
}

package coretest

import (
	"fmt"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/webrtc/v4"
)

// FakeSender is a send slot that remembers every track it carried.
type FakeSender struct {
	mu           sync.Mutex
	track        webrtc.TrackLocal
	replacements int
	ReplaceErr   error
}

func (s *FakeSender) Track() webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

func (s *FakeSender) ReplaceTrack(track webrtc.TrackLocal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.track = track
	s.replacements++
	return nil
}

func (s *FakeSender) Replacements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replacements
}

// FakeTransport records every negotiation step instead of talking to a peer.
type FakeTransport struct {
	mu         sync.Mutex
	remote     *webrtc.SessionDescription
	local      *webrtc.SessionDescription
	senders    []*FakeSender
	candidates []webrtc.ICECandidateInit
	state      webrtc.PeerConnectionState
	answers    int
	restarts   int
	rollbacks  int
	closes     int
	// pending is true while a restart offer waits for its answer.
	pending bool

	onICE   func(*webrtc.ICECandidateInit)
	onTrack func(core.RemoteTrack)
	onState func(webrtc.PeerConnectionState)

	RestartErr error
	// BeforeAnswer, when set, runs inside CreateAnswer.
	BeforeAnswer func()
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{state: webrtc.PeerConnectionStateNew}
}

func (t *FakeTransport) SetRemoteDescription(sd webrtc.SessionDescription) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closes > 0 {
		return webrtc.ErrConnectionClosed
	}
	switch {
	case sd.Type == webrtc.SDPTypeOffer && t.pending:
		return fmt.Errorf("have-local-offer: remote offer rejected")
	case sd.Type == webrtc.SDPTypeAnswer && !t.pending:
		return fmt.Errorf("stable: no local offer to answer")
	}
	t.pending = false
	t.remote = &sd
	return nil
}

func (t *FakeTransport) CreateAnswer() (webrtc.SessionDescription, error) {
	if t.BeforeAnswer != nil {
		t.BeforeAnswer()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remote == nil || t.remote.Type != webrtc.SDPTypeOffer {
		return webrtc.SessionDescription{}, fmt.Errorf("no remote offer")
	}
	t.answers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: fmt.Sprintf("answer-%d", t.answers)}, nil
}

func (t *FakeTransport) SetLocalDescription(sd webrtc.SessionDescription) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.local = &sd
	return nil
}

func (t *FakeTransport) LocalDescription() *webrtc.SessionDescription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.local
}

func (t *FakeTransport) RemoteDescription() *webrtc.SessionDescription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remote
}

func (t *FakeTransport) RestartICE() (webrtc.SessionDescription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restarts++
	if t.RestartErr != nil {
		return webrtc.SessionDescription{}, t.RestartErr
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: fmt.Sprintf("restart-%d", t.restarts)}
	t.local = &offer
	t.pending = true
	return offer, nil
}

func (t *FakeTransport) Rollback() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pending {
		return false, nil
	}
	t.pending = false
	t.local = nil
	t.rollbacks++
	return true, nil
}

// PendingOffer reports whether a local offer waits for an answer.
func (t *FakeTransport) PendingOffer() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

func (t *FakeTransport) Rollbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rollbacks
}

func (t *FakeTransport) AddICECandidate(c webrtc.ICECandidateInit) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.candidates = append(t.candidates, c)
	return nil
}

func (t *FakeTransport) AddTrack(track webrtc.TrackLocal) (core.Sender, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &FakeSender{track: track}
	t.senders = append(t.senders, s)
	return s, nil
}

func (t *FakeTransport) Senders() []core.Sender {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.Sender, 0, len(t.senders))
	for _, s := range t.senders {
		out = append(out, s)
	}
	return out
}

func (t *FakeTransport) FakeSenders() []*FakeSender {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*FakeSender(nil), t.senders...)
}

func (t *FakeTransport) ConnectionState() webrtc.PeerConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *FakeTransport) OnICECandidate(fn func(*webrtc.ICECandidateInit)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onICE = fn
}

func (t *FakeTransport) OnTrack(fn func(core.RemoteTrack)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTrack = fn
}

func (t *FakeTransport) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onState = fn
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	t.state = webrtc.PeerConnectionStateClosed
	return nil
}

// EmitCandidate simulates local ICE gathering; nil ends it.
func (t *FakeTransport) EmitCandidate(c *webrtc.ICECandidateInit) {
	t.mu.Lock()
	fn := t.onICE
	t.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

func (t *FakeTransport) EmitTrack(track core.RemoteTrack) {
	t.mu.Lock()
	fn := t.onTrack
	t.mu.Unlock()
	if fn != nil {
		fn(track)
	}
}

func (t *FakeTransport) SetState(s webrtc.PeerConnectionState) {
	t.mu.Lock()
	t.state = s
	fn := t.onState
	t.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (t *FakeTransport) Candidates() []webrtc.ICECandidateInit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]webrtc.ICECandidateInit(nil), t.candidates...)
}

func (t *FakeTransport) Restarts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restarts
}

func (t *FakeTransport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

// FakeRemoteTrack is an inbound track ended with End.
type FakeRemoteTrack struct {
	TrackID  string
	Stream   string
	Codec    webrtc.RTPCodecType
	done     chan struct{}
	doneOnce sync.Once
}

func NewFakeRemoteTrack(id, stream string, kind webrtc.RTPCodecType) *FakeRemoteTrack {
	return &FakeRemoteTrack{TrackID: id, Stream: stream, Codec: kind, done: make(chan struct{})}
}

func (r *FakeRemoteTrack) ID() string                { return r.TrackID }
func (r *FakeRemoteTrack) StreamID() string          { return r.Stream }
func (r *FakeRemoteTrack) Kind() webrtc.RTPCodecType { return r.Codec }
func (r *FakeRemoteTrack) Done() <-chan struct{}     { return r.done }

func (r *FakeRemoteTrack) End() {
	r.doneOnce.Do(func() { close(r.done) })
}

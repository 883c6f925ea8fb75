package peer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/core/coretest"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvents struct {
	mu    sync.Mutex
	added []string
	ended []string
	lost  []error
}

func (r *recordedEvents) RemoteVideo(t core.RemoteTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, t.StreamID())
}

func (r *recordedEvents) RemoteVideoEnded(t core.RemoteTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, t.StreamID())
}

func (r *recordedEvents) TransportLost(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lost = append(r.lost, err)
}

func (r *recordedEvents) snapshot() (added, ended []string, lost []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.added...), append([]string(nil), r.ended...), append([]error(nil), r.lost...)
}

type fixture struct {
	transport *coretest.FakeTransport
	channel   *coretest.FakeChannel
	devices   *coretest.FakeDevices
	events    *recordedEvents
	manager   *Manager
}

func zeroPolicy(retries uint64) app.RestartPolicy {
	return app.NewPolicyFrom(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	})
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		transport: coretest.NewFakeTransport(),
		channel:   coretest.NewFakeChannel(),
		devices:   coretest.NewFakeDevices(),
		events:    &recordedEvents{},
	}
	f.manager = NewManager("test", f.transport, f.channel, f.devices, f.events, opts)
	f.manager.Bind()
	t.Cleanup(f.manager.Close)
	return f
}

func (f *fixture) offer(t *testing.T, sdp string) {
	t.Helper()
	require.NoError(t, f.channel.Deliver(core.EventSDPOffer, core.BodyPayload{Body: sdp}))
}

func bodies(t *testing.T, raws []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		var p core.BodyPayload
		require.NoError(t, json.Unmarshal(raw, &p))
		out = append(out, p.Body)
	}
	return out
}

func TestAcquireLocalMediaDenied(t *testing.T) {
	f := newFixture(t, Options{})
	f.devices.UserErr = errors.New("permission denied")

	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMediaUnavailable)
	assert.Equal(t, StateFailed, f.manager.State())
}

func TestAcquireLocalMediaOnce(t *testing.T) {
	f := newFixture(t, Options{})
	s1, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)
	s2, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, f.devices.UserMediaCalls())
	assert.Equal(t, StateAwaitingOffer, f.manager.State())
}

func TestRenegotiationAttachesTracksOnce(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)

	f.offer(t, "offer-1")
	f.offer(t, "offer-2")
	f.offer(t, "offer-3")

	senders := f.transport.FakeSenders()
	require.Len(t, senders, 2)
	kinds := map[webrtc.RTPCodecType]int{}
	for _, s := range senders {
		kinds[s.Track().Kind()]++
	}
	assert.Equal(t, 1, kinds[webrtc.RTPCodecTypeVideo])
	assert.Equal(t, 1, kinds[webrtc.RTPCodecTypeAudio])

	assert.Equal(t, []string{"answer-1", "answer-2", "answer-3"}, bodies(t, f.channel.Pushed(core.EventSDPAnswer)))
	assert.Equal(t, "offer-3", f.transport.RemoteDescription().SDP)
	assert.Same(t, f.devices.Camera.Local(), f.manager.VideoSender().Track())
}

func TestOfferBeforeMediaAnswersWithoutTracks(t *testing.T) {
	f := newFixture(t, Options{})
	f.offer(t, "offer-1")
	assert.Empty(t, f.transport.FakeSenders())
	assert.Nil(t, f.manager.VideoSender())

	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)
	f.offer(t, "offer-2")
	assert.Len(t, f.transport.FakeSenders(), 2)
}

func TestOffersAreSerialized(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.transport.BeforeAnswer = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); f.offer(t, "offer-1") }()
	<-entered
	go func() { defer wg.Done(); f.offer(t, "offer-2") }()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "offer-1", f.transport.RemoteDescription().SDP, "second offer applied while first in flight")

	close(release)
	wg.Wait()
	assert.Equal(t, []string{"answer-1", "answer-2"}, bodies(t, f.channel.Pushed(core.EventSDPAnswer)))
	assert.Equal(t, "offer-2", f.transport.RemoteDescription().SDP)
}

func TestLocalCandidatesTrickle(t *testing.T) {
	f := newFixture(t, Options{})
	mid := "0"
	idx := uint16(0)
	f.transport.EmitCandidate(&webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: &mid, SDPMLineIndex: &idx})
	f.transport.EmitCandidate(nil)

	pushed := bodies(t, f.channel.Pushed(core.EventICECandidate))
	require.Len(t, pushed, 1)
	var c webrtc.ICECandidateInit
	require.NoError(t, json.Unmarshal([]byte(pushed[0]), &c))
	assert.Equal(t, "candidate:1 1 udp 1 10.0.0.1 5000 typ host", c.Candidate)
	require.NotNil(t, c.SDPMid)
	assert.Equal(t, "0", *c.SDPMid)
}

func TestRemoteCandidateBeforeOffer(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.channel.Deliver(core.EventICECandidate, core.BodyPayload{Body: `{"candidate":"candidate:2 1 udp 1 10.0.0.2 5001 typ host","sdpMid":"0","sdpMLineIndex":0}`}))

	got := f.transport.Candidates()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Candidate, "10.0.0.2")
}

func TestRemoteTracks(t *testing.T) {
	f := newFixture(t, Options{})
	video := coretest.NewFakeRemoteTrack("v1", "stream-a", webrtc.RTPCodecTypeVideo)
	audio := coretest.NewFakeRemoteTrack("a1", "stream-a", webrtc.RTPCodecTypeAudio)

	f.transport.EmitTrack(video)
	f.transport.EmitTrack(audio)
	added, _, _ := f.events.snapshot()
	assert.Equal(t, []string{"stream-a"}, added)

	video.End()
	require.Eventually(t, func() bool {
		_, ended, _ := f.events.snapshot()
		return len(ended) == 1 && ended[0] == "stream-a"
	}, time.Second, 5*time.Millisecond)
}

func TestFailedConnectionRestartsInPlace(t *testing.T) {
	f := newFixture(t, Options{Restart: zeroPolicy(3), PushRestartOffer: true})
	f.transport.SetState(webrtc.PeerConnectionStateFailed)

	require.Eventually(t, func() bool { return len(f.channel.Pushed(core.EventSDPOffer)) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"restart-1"}, bodies(t, f.channel.Pushed(core.EventSDPOffer)))
	assert.Equal(t, StateRestarting, f.manager.State())

	require.NoError(t, f.channel.Deliver(core.EventSDPAnswer, core.BodyPayload{Body: "restart-answer"}))
	assert.Equal(t, webrtc.SDPTypeAnswer, f.transport.RemoteDescription().Type)

	f.transport.SetState(webrtc.PeerConnectionStateConnected)
	assert.Equal(t, StateConnected, f.manager.State())
	assert.Zero(t, f.transport.Closes(), "restart must not recreate the transport")
}

func TestRestartBudgetExhausted(t *testing.T) {
	f := newFixture(t, Options{Restart: zeroPolicy(2)})
	f.transport.RestartErr = errors.New("ice agent closed")
	f.transport.SetState(webrtc.PeerConnectionStateFailed)

	require.Eventually(t, func() bool {
		_, _, lost := f.events.snapshot()
		return len(lost) == 1
	}, time.Second, 5*time.Millisecond)
	_, _, lost := f.events.snapshot()
	assert.ErrorIs(t, lost[0], core.ErrRestartBudgetExhausted)
	assert.Equal(t, 2, f.transport.Restarts())
}

func TestStuckRestartCountsAgainstBudget(t *testing.T) {
	f := newFixture(t, Options{Restart: zeroPolicy(2), RestartTimeout: 10 * time.Millisecond})
	f.transport.SetState(webrtc.PeerConnectionStateFailed)

	require.Eventually(t, func() bool {
		_, _, lost := f.events.snapshot()
		return len(lost) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.transport.Restarts())
}

func TestRestartWaitsForServerOffer(t *testing.T) {
	f := newFixture(t, Options{Restart: zeroPolicy(3)})
	f.offer(t, "offer-1")
	f.transport.SetState(webrtc.PeerConnectionStateFailed)

	require.Eventually(t, func() bool { return f.transport.Rollbacks() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.channel.Pushed(core.EventSDPOffer))
	assert.False(t, f.transport.PendingOffer())
	assert.Equal(t, StateRestarting, f.manager.State())

	f.offer(t, "offer-2")
	assert.Equal(t, []string{"answer-1", "answer-2"}, bodies(t, f.channel.Pushed(core.EventSDPAnswer)))

	f.transport.SetState(webrtc.PeerConnectionStateConnected)
	assert.Equal(t, StateConnected, f.manager.State())
}

func TestServerOfferWinsOverPendingRestartOffer(t *testing.T) {
	f := newFixture(t, Options{Restart: zeroPolicy(3), PushRestartOffer: true})
	f.offer(t, "offer-1")
	f.transport.SetState(webrtc.PeerConnectionStateFailed)
	require.Eventually(t, func() bool { return len(f.channel.Pushed(core.EventSDPOffer)) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, f.transport.PendingOffer())

	f.offer(t, "offer-2")

	assert.Equal(t, 1, f.transport.Rollbacks())
	assert.False(t, f.transport.PendingOffer())
	assert.Equal(t, []string{"answer-1", "answer-2"}, bodies(t, f.channel.Pushed(core.EventSDPAnswer)))
}

func TestToggleLocalTracks(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)

	assert.False(t, f.manager.ToggleAudio())
	assert.False(t, f.devices.Mic.Enabled())
	assert.True(t, f.devices.Camera.Enabled())
	assert.True(t, f.manager.ToggleAudio())
	assert.False(t, f.manager.ToggleVideo())
	assert.False(t, f.devices.Camera.Enabled())
}

func TestCloseReleasesOnce(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.manager.AcquireLocalMedia(context.Background())
	require.NoError(t, err)

	f.manager.Close()
	f.manager.Close()
	assert.Equal(t, 1, f.transport.Closes())
	assert.True(t, f.devices.Camera.Stopped())
	assert.True(t, f.devices.Mic.Stopped())
	assert.Equal(t, StateClosed, f.manager.State())

	assert.ErrorIs(t, f.manager.HandleOffer("late"), core.ErrSessionClosed)
	f.transport.EmitCandidate(&webrtc.ICECandidateInit{Candidate: "late"})
	assert.Empty(t, f.channel.Pushed(core.EventICECandidate))
}

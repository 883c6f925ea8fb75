package media

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateLive TrackState = iota
	TrackStateMuted
	TrackStateEnded
	TrackStateStopped
)

// Track is a captured local track. Its samples come from a player goroutine.
type Track struct {
	kind   webrtc.RTPCodecType
	sample *webrtc.TrackLocalStaticSample
	state  atomic.Int32 // Zero by default (TrackStateLive)
	done   chan struct{}
	once   sync.Once
}

func NewTrack(kind webrtc.RTPCodecType, codec webrtc.RTPCodecCapability, id, streamID string) (*Track, error) {
	sample, err := webrtc.NewTrackLocalStaticSample(codec, id, streamID)
	if err != nil {
		return nil, err
	}
	return &Track{kind: kind, sample: sample, done: make(chan struct{})}, nil
}

func (t *Track) ID() string                { return t.sample.ID() }
func (t *Track) Kind() webrtc.RTPCodecType { return t.kind }
func (t *Track) Local() webrtc.TrackLocal  { return t.sample }
func (t *Track) Done() <-chan struct{}     { return t.done }

func (t *Track) GetState() TrackState {
	return TrackState(t.state.Load())
}

func (t *Track) Enabled() bool {
	return t.GetState() == TrackStateLive
}

// SetEnabled mutes or unmutes. A finished track stays finished.
func (t *Track) SetEnabled(enabled bool) {
	if enabled {
		t.state.CompareAndSwap(int32(TrackStateMuted), int32(TrackStateLive))
		return
	}
	t.state.CompareAndSwap(int32(TrackStateLive), int32(TrackStateMuted))
}

func (t *Track) Stop() {
	t.state.Store(int32(TrackStateStopped))
	t.once.Do(func() { close(t.done) })
}

func (t *Track) Stopped() bool {
	return t.GetState() == TrackStateStopped
}

// end marks the source as exhausted.
func (t *Track) end() {
	t.state.CompareAndSwap(int32(TrackStateLive), int32(TrackStateEnded))
	t.state.CompareAndSwap(int32(TrackStateMuted), int32(TrackStateEnded))
	t.once.Do(func() { close(t.done) })
}

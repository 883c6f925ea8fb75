package coretest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/webrtc/v4"
)

// FakeLocalTrack wraps a real sample track so sender identity can be compared.
type FakeLocalTrack struct {
	local   *webrtc.TrackLocalStaticSample
	kind    webrtc.RTPCodecType
	enabled atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

func NewFakeLocalTrack(id, streamID string, kind webrtc.RTPCodecType) *FakeLocalTrack {
	codec := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}
	if kind == webrtc.RTPCodecTypeAudio {
		codec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}
	}
	local, err := webrtc.NewTrackLocalStaticSample(codec, id, streamID)
	if err != nil {
		panic(err)
	}
	t := &FakeLocalTrack{local: local, kind: kind, done: make(chan struct{})}
	t.enabled.Store(true)
	return t
}

func (t *FakeLocalTrack) ID() string                { return t.local.ID() }
func (t *FakeLocalTrack) Kind() webrtc.RTPCodecType { return t.kind }
func (t *FakeLocalTrack) Local() webrtc.TrackLocal  { return t.local }
func (t *FakeLocalTrack) Enabled() bool             { return t.enabled.Load() }
func (t *FakeLocalTrack) SetEnabled(v bool)         { t.enabled.Store(v) }
func (t *FakeLocalTrack) Stopped() bool             { return t.stopped.Load() }
func (t *FakeLocalTrack) Done() <-chan struct{}     { return t.done }

func (t *FakeLocalTrack) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() { close(t.done) })
}

// End simulates the source terminating out-of-band.
func (t *FakeLocalTrack) End() {
	t.once.Do(func() { close(t.done) })
}

// FakeDevices hands out fake captures and counts acquisitions.
type FakeDevices struct {
	mu       sync.Mutex
	user     int
	displays []*FakeLocalTrack

	UserErr    error
	DisplayErr error
	// Camera and Mic are returned by UserMedia.
	Camera *FakeLocalTrack
	Mic    *FakeLocalTrack
}

func NewFakeDevices() *FakeDevices {
	return &FakeDevices{
		Camera: NewFakeLocalTrack("camera", "local", webrtc.RTPCodecTypeVideo),
		Mic:    NewFakeLocalTrack("mic", "local", webrtc.RTPCodecTypeAudio),
	}
}

func (d *FakeDevices) UserMedia(ctx context.Context) (*core.LocalStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.user++
	if d.UserErr != nil {
		return nil, d.UserErr
	}
	return &core.LocalStream{ID: "local", Tracks: []core.LocalTrack{d.Camera, d.Mic}}, nil
}

func (d *FakeDevices) DisplayMedia(ctx context.Context) (*core.LocalStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DisplayErr != nil {
		return nil, d.DisplayErr
	}
	id := fmt.Sprintf("screen-%d", len(d.displays)+1)
	t := NewFakeLocalTrack(id, id, webrtc.RTPCodecTypeVideo)
	d.displays = append(d.displays, t)
	return &core.LocalStream{ID: id, Tracks: []core.LocalTrack{t}}, nil
}

func (d *FakeDevices) UserMediaCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.user
}

// Displays returns every screen capture handed out so far.
func (d *FakeDevices) Displays() []*FakeLocalTrack {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeLocalTrack(nil), d.displays...)
}

package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadySharing = errors.New("already sharing")
	ErrNoVideoSender  = errors.New("no outgoing video sender")
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeExternal
	ModeScreen
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeExternal:
		return "external"
	case ModeScreen:
		return "screen"
	}
	return "unknown"
}

// VideoSource locates the outgoing video send slot.
type VideoSource interface {
	VideoSender() core.Sender
}

// Coordinator owns the room-wide shared surface as seen by this client.
// External content follows server broadcasts; screen share swaps the
// outgoing video track locally and restores the exact original on stop.
type Coordinator struct {
	channel core.SignalChannel
	devices core.MediaDevices
	source  VideoSource
	view    core.View
	logger  zerolog.Logger

	mu        sync.Mutex
	mode      Mode
	content   domain.SharedContent
	acquiring bool
	closed    bool
	episode   uint64
	capture   *core.LocalStream
	sender    core.Sender
	original  webrtc.TrackLocal
}

func NewCoordinator(sid string, channel core.SignalChannel, devices core.MediaDevices, source VideoSource, view core.View) *Coordinator {
	if view == nil {
		view = core.NopView{}
	}
	return &Coordinator{
		channel: channel,
		devices: devices,
		source:  source,
		view:    view,
		logger:  log.With().Str("module", "app.share").Str("sid", sid).Logger(),
	}
}

// Bind subscribes to the share broadcasts.
func (c *Coordinator) Bind() {
	c.channel.On(core.EventYoutubeShared, func(payload json.RawMessage) {
		var p core.YoutubeSharedPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.VideoID == "" {
			c.logger.Error().Err(err).Msg("bad youtube share payload")
			return
		}
		c.OnVideoShared(domain.SharedContent{Kind: domain.ShareYouTube, VideoID: p.VideoID, Sender: p.Sender})
	})
	c.channel.On(core.EventDirectShared, func(payload json.RawMessage) {
		var p core.DirectSharedPayload
		if err := json.Unmarshal(payload, &p); err != nil || strings.TrimSpace(p.URL) == "" {
			c.logger.Error().Err(err).Msg("bad direct share payload")
			return
		}
		c.OnVideoShared(directContent(strings.TrimSpace(p.URL), p.Sender))
	})
	c.channel.On(core.EventShareStopped, func(json.RawMessage) {
		c.OnShareStopped()
	})
}

// State returns the current mode and what is shown.
func (c *Coordinator) State() (Mode, domain.SharedContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.content
}

// OnVideoShared enters External for whoever started it. A running screen
// share is stopped first.
func (c *Coordinator) OnVideoShared(content domain.SharedContent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.mode == ModeScreen {
		c.logger.Info().Msg("external share replaces screen share")
		c.restoreLocked()
	}
	c.mode = ModeExternal
	c.content = content
	c.mu.Unlock()

	c.logger.Info().Str("kind", string(content.Kind)).Str("sender", content.Sender).Msg("shared content")
	c.view.SharedContentChanged(content)
}

// OnShareStopped leaves External. It does not touch a local screen share.
func (c *Coordinator) OnShareStopped() {
	c.mu.Lock()
	if c.closed || c.mode != ModeExternal {
		mode := c.mode
		c.mu.Unlock()
		c.logger.Debug().Str("mode", mode.String()).Msg("share stopped ignored")
		return
	}
	c.mode = ModeIdle
	c.content = domain.SharedContent{}
	c.mu.Unlock()

	c.logger.Info().Msg("shared content stopped")
	c.view.SharedContentChanged(domain.SharedContent{})
}

// ShareURL asks the room to show raw. State changes when the broadcast comes back.
func (c *Coordinator) ShareURL(raw string) error {
	content, err := Classify(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	closed, mode := c.closed, c.mode
	c.mu.Unlock()
	if closed {
		return core.ErrSessionClosed
	}
	if mode != ModeIdle {
		return ErrAlreadySharing
	}

	if content.Kind == domain.ShareYouTube {
		return c.channel.Push(core.EventShareYoutube, map[string]string{"video_id": content.VideoID})
	}
	return c.channel.Push(core.EventShareDirect, map[string]string{"url": content.URL})
}

// StartScreenShare swaps the outgoing video for a screen capture. It is a
// no-op while a screen share runs and is rejected during external sharing.
func (c *Coordinator) StartScreenShare(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return core.ErrSessionClosed
	case c.mode == ModeScreen || c.acquiring:
		c.mu.Unlock()
		return nil
	case c.mode == ModeExternal:
		c.mu.Unlock()
		return ErrAlreadySharing
	}
	sender := c.source.VideoSender()
	if sender == nil {
		c.mu.Unlock()
		c.logger.Error().Msg("could not find video sender")
		return ErrNoVideoSender
	}
	c.acquiring = true
	c.mu.Unlock()

	stream, err := c.devices.DisplayMedia(ctx)

	c.mu.Lock()
	c.acquiring = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("error starting screen share")
		if !errors.Is(err, core.ErrMediaUnavailable) {
			err = fmt.Errorf("%w: %v", core.ErrMediaUnavailable, err)
		}
		return err
	}
	if c.closed || c.mode != ModeIdle {
		closed := c.closed
		c.mu.Unlock()
		stream.Stop()
		if closed {
			return core.ErrSessionClosed
		}
		return ErrAlreadySharing
	}
	videos := stream.VideoTracks()
	if len(videos) == 0 {
		c.mu.Unlock()
		stream.Stop()
		return fmt.Errorf("%w: capture has no video track", core.ErrMediaUnavailable)
	}
	screen := videos[0]
	original := sender.Track()
	if err := sender.ReplaceTrack(screen.Local()); err != nil {
		c.mu.Unlock()
		stream.Stop()
		return fmt.Errorf("replace track: %w", err)
	}
	c.episode++
	episode := c.episode
	c.mode = ModeScreen
	c.content = domain.SharedContent{Kind: domain.ShareScreen}
	c.capture = stream
	c.sender = sender
	c.original = original
	content := c.content
	c.mu.Unlock()

	go c.watchCapture(episode, screen.Done())
	c.logger.Info().Str("track_id", screen.ID()).Msg("screen share started")
	c.view.SharedContentChanged(content)
	return nil
}

// watchCapture stops the episode when its capture ends on its own.
func (c *Coordinator) watchCapture(episode uint64, done <-chan struct{}) {
	<-done
	if c.stopScreen(episode) {
		c.logger.Info().Msg("screen capture ended")
	}
}

func (c *Coordinator) StopScreenShare() error {
	c.stopScreen(0)
	return nil
}

// stopScreen ends the given episode, or the current one when episode is 0.
func (c *Coordinator) stopScreen(episode uint64) bool {
	c.mu.Lock()
	if c.mode != ModeScreen || (episode != 0 && episode != c.episode) {
		c.mu.Unlock()
		return false
	}
	c.restoreLocked()
	c.mode = ModeIdle
	c.content = domain.SharedContent{}
	closed := c.closed
	c.mu.Unlock()

	c.logger.Info().Msg("screen share stopped")
	if !closed {
		c.view.SharedContentChanged(domain.SharedContent{})
	}
	return true
}

// restoreLocked puts the original track back and releases the capture.
func (c *Coordinator) restoreLocked() {
	if c.sender != nil {
		if err := c.sender.ReplaceTrack(c.original); err != nil {
			c.logger.Error().Err(err).Msg("restore original track")
		}
	}
	c.capture.Stop()
	c.capture = nil
	c.sender = nil
	c.original = nil
}

// StopSharing stops whichever share is active.
func (c *Coordinator) StopSharing() error {
	c.mu.Lock()
	mode, closed := c.mode, c.closed
	c.mu.Unlock()
	if closed {
		return core.ErrSessionClosed
	}
	switch mode {
	case ModeScreen:
		return c.StopScreenShare()
	case ModeExternal:
		return c.channel.Push(core.EventStopShare, struct{}{})
	}
	return nil
}

// Close releases a running capture. Nothing is reported afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.mode == ModeScreen {
		c.capture.Stop()
		c.capture = nil
		c.sender = nil
		c.original = nil
	}
	c.mode = ModeIdle
	c.content = domain.SharedContent{}
}

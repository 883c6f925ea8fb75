package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errNoSource = errors.New("no capture file configured")

type Config struct {
	CameraFile string
	MicFile    string
	ScreenFile string
	// Loop restarts a source from the beginning when it runs out.
	Loop bool
}

// FileDevices captures from IVF (video) and Ogg/Opus (audio) files.
type FileDevices struct {
	cfg    Config
	logger zerolog.Logger
}

func NewFileDevices(cfg Config) *FileDevices {
	return &FileDevices{
		cfg:    cfg,
		logger: log.With().Str("module", "adapters.media").Logger(),
	}
}

func (d *FileDevices) UserMedia(ctx context.Context) (*core.LocalStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream := &core.LocalStream{ID: uuid.NewString()}

	camera, err := d.video("camera", d.cfg.CameraFile, stream.ID, d.cfg.Loop)
	if err != nil {
		return nil, unavailable("camera", err)
	}
	mic, err := d.audio("microphone", d.cfg.MicFile, stream.ID, d.cfg.Loop)
	if err != nil {
		camera.Stop()
		return nil, unavailable("microphone", err)
	}
	stream.Tracks = []core.LocalTrack{camera, mic}
	return stream, nil
}

func (d *FileDevices) DisplayMedia(ctx context.Context) (*core.LocalStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream := &core.LocalStream{ID: uuid.NewString()}
	screen, err := d.video("screen", d.cfg.ScreenFile, stream.ID, d.cfg.Loop)
	if err != nil {
		return nil, unavailable("screen", err)
	}
	stream.Tracks = []core.LocalTrack{screen}
	return stream, nil
}

func unavailable(device string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrMediaUnavailable, device, err)
}

func (d *FileDevices) video(device, path, streamID string, loop bool) (*Track, error) {
	if path == "" {
		return nil, errNoSource
	}
	src, header, err := openIVF(path)
	if err != nil {
		return nil, err
	}
	codec, err := videoCodec(header.FourCC)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	t, err := NewTrack(webrtc.RTPCodecTypeVideo, codec, device+"-"+uuid.NewString(), streamID)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	logger := d.logger.With().Str("device", device).Str("track_id", t.ID()).Logger()
	logger.Info().Str("file", path).Str("codec", codec.MimeType).Msg("capture started")
	go play(t, func() (sampleSource, error) {
		s, _, err := openIVF(path)
		return s, err
	}, src, loop, logger)
	return t, nil
}

func (d *FileDevices) audio(device, path, streamID string, loop bool) (*Track, error) {
	if path == "" {
		return nil, errNoSource
	}
	src, err := openOgg(path)
	if err != nil {
		return nil, err
	}
	t, err := NewTrack(webrtc.RTPCodecTypeAudio, webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, device+"-"+uuid.NewString(), streamID)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	logger := d.logger.With().Str("device", device).Str("track_id", t.ID()).Logger()
	logger.Info().Str("file", path).Msg("capture started")
	go play(t, func() (sampleSource, error) { return openOgg(path) }, src, loop, logger)
	return t, nil
}

package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIVF writes a VP8 IVF file of frames one-millisecond frames.
func writeIVF(t *testing.T, dir string, frames int) string {
	t.Helper()
	var buf bytes.Buffer
	header := make([]byte, 32)
	copy(header[0:4], "DKIF")
	binary.LittleEndian.PutUint16(header[4:6], 0)
	binary.LittleEndian.PutUint16(header[6:8], 32)
	copy(header[8:12], "VP80")
	binary.LittleEndian.PutUint16(header[12:14], 64)
	binary.LittleEndian.PutUint16(header[14:16], 48)
	binary.LittleEndian.PutUint32(header[16:20], 1000)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], uint32(frames))
	buf.Write(header)
	for i := 0; i < frames; i++ {
		payload := []byte{0x10, 0x02, 0x00, byte(i)}
		fh := make([]byte, 12)
		binary.LittleEndian.PutUint32(fh[0:4], uint32(len(payload)))
		binary.LittleEndian.PutUint64(fh[4:12], uint64(i))
		buf.Write(fh)
		buf.Write(payload)
	}
	path := filepath.Join(dir, "video.ivf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeOgg(t *testing.T, dir string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, "audio.ogg")
	w, err := oggwriter.New(path, 48000, 2)
	require.NoError(t, err)
	for i := 0; i < pages; i++ {
		require.NoError(t, w.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{SequenceNumber: uint16(i), Timestamp: uint32(i * 48)},
			Payload: []byte{0xFC, 0x01, byte(i)},
		}))
	}
	require.NoError(t, w.Close())
	return path
}

func waitDone(t *testing.T, tr core.LocalTrack) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("track did not end")
	}
}

func TestUserMedia(t *testing.T) {
	dir := t.TempDir()
	d := NewFileDevices(Config{CameraFile: writeIVF(t, dir, 200), MicFile: writeOgg(t, dir, 50), Loop: true})

	stream, err := d.UserMedia(context.Background())
	require.NoError(t, err)
	defer stream.Stop()

	require.Len(t, stream.VideoTracks(), 1)
	require.Len(t, stream.AudioTracks(), 1)
	video := stream.VideoTracks()[0]
	assert.Equal(t, webrtc.RTPCodecTypeVideo, video.Kind())
	assert.Equal(t, stream.ID, video.Local().StreamID())
	assert.Equal(t, video.ID(), video.Local().ID())
	assert.True(t, video.Enabled())
	assert.False(t, video.Stopped())
}

func TestUserMedia_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]Config{
		"no camera":       {MicFile: writeOgg(t, dir, 1)},
		"camera missing":  {CameraFile: filepath.Join(dir, "nope.ivf"), MicFile: writeOgg(t, dir, 1)},
		"mic missing":     {CameraFile: writeIVF(t, dir, 1), MicFile: filepath.Join(dir, "nope.ogg")},
		"not an ivf file": {CameraFile: writeOgg(t, dir, 1), MicFile: writeOgg(t, dir, 1)},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewFileDevices(cfg).UserMedia(context.Background())
			assert.ErrorIs(t, err, core.ErrMediaUnavailable)
		})
	}
}

func TestUserMedia_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileDevices(Config{}).UserMedia(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisplayMedia_EndsWithoutLoop(t *testing.T) {
	d := NewFileDevices(Config{ScreenFile: writeIVF(t, t.TempDir(), 5)})

	stream, err := d.DisplayMedia(context.Background())
	require.NoError(t, err)
	require.Len(t, stream.Tracks, 1)

	screen := stream.Tracks[0]
	waitDone(t, screen)
	assert.False(t, screen.Stopped())
	assert.False(t, screen.Enabled())
}

func TestDisplayMedia_NotConfigured(t *testing.T) {
	_, err := NewFileDevices(Config{}).DisplayMedia(context.Background())
	assert.ErrorIs(t, err, core.ErrMediaUnavailable)
}

func TestTrack_StopWhileLooping(t *testing.T) {
	dir := t.TempDir()
	d := NewFileDevices(Config{CameraFile: writeIVF(t, dir, 3), MicFile: writeOgg(t, dir, 3), Loop: true})
	stream, err := d.UserMedia(context.Background())
	require.NoError(t, err)

	mic := stream.AudioTracks()[0]
	time.Sleep(20 * time.Millisecond)
	select {
	case <-mic.Done():
		t.Fatal("looping track ended on its own")
	default:
	}

	stream.Stop()
	waitDone(t, mic)
	assert.True(t, mic.Stopped())
	stream.Stop()
}

func TestTrack_State(t *testing.T) {
	tr, err := NewTrack(webrtc.RTPCodecTypeAudio, webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "a", "s")
	require.NoError(t, err)

	assert.Equal(t, TrackStateLive, tr.GetState())
	tr.SetEnabled(false)
	assert.Equal(t, TrackStateMuted, tr.GetState())
	tr.SetEnabled(true)
	assert.True(t, tr.Enabled())

	tr.end()
	assert.Equal(t, TrackStateEnded, tr.GetState())
	tr.SetEnabled(true)
	assert.False(t, tr.Enabled())

	tr.Stop()
	assert.True(t, tr.Stopped())
	tr.SetEnabled(true)
	assert.True(t, tr.Stopped())
}

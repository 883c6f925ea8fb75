package rtc

import (
	"context"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// FeedStats counts what arrived on one inbound track.
type FeedStats struct {
	TrackID  string `json:"track_id"`
	StreamID string `json:"stream_id"`
	Kind     string `json:"kind"`
	SSRC     uint32 `json:"ssrc"`
	Packets  uint64 `json:"packets"`
	Bytes    uint64 `json:"bytes"`
	LastSeq  uint16 `json:"last_seq"`
	Ended    bool   `json:"ended"`
}

// remoteTrack is a core.RemoteTrack fed by a read loop. Done closes once
// reading stops.
type remoteTrack struct {
	src  *webrtc.TrackRemote
	done chan struct{}

	mu    sync.Mutex
	stats FeedStats
}

func newRemoteTrack(src *webrtc.TrackRemote) *remoteTrack {
	return &remoteTrack{
		src:  src,
		done: make(chan struct{}),
		stats: FeedStats{
			TrackID:  src.ID(),
			StreamID: src.StreamID(),
			Kind:     src.Kind().String(),
			SSRC:     uint32(src.SSRC()),
		},
	}
}

func (r *remoteTrack) ID() string                { return r.src.ID() }
func (r *remoteTrack) StreamID() string          { return r.src.StreamID() }
func (r *remoteTrack) Kind() webrtc.RTPCodecType { return r.src.Kind() }
func (r *remoteTrack) Done() <-chan struct{}     { return r.done }

func (r *remoteTrack) Stats() FeedStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// loop reads RTP packets from the source track until it ends.
func (r *remoteTrack) loop(ctx context.Context, logger *zerolog.Logger) {
	defer func() {
		r.mu.Lock()
		r.stats.Ended = true
		r.mu.Unlock()
		close(r.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		pkt, _, err := r.src.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Str("track_id", r.src.ID()).Msg("remote track ended")
			return
		}
		r.record(pkt)
	}
}

func (r *remoteTrack) record(pkt *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Packets++
	r.stats.Bytes += uint64(len(pkt.Payload))
	r.stats.LastSeq = pkt.SequenceNumber
	r.stats.SSRC = pkt.SSRC
}

package core

import "github.com/pion/webrtc/v4"

// LocalStream groups the tracks of one capture.
type LocalStream struct {
	ID     string
	Tracks []LocalTrack
}

func (s *LocalStream) byKind(kind webrtc.RTPCodecType) []LocalTrack {
	if s == nil {
		return nil
	}
	out := make([]LocalTrack, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

func (s *LocalStream) VideoTracks() []LocalTrack { return s.byKind(webrtc.RTPCodecTypeVideo) }

func (s *LocalStream) AudioTracks() []LocalTrack { return s.byKind(webrtc.RTPCodecTypeAudio) }

// Stop stops every track of the stream.
func (s *LocalStream) Stop() {
	if s == nil {
		return
	}
	for _, t := range s.Tracks {
		t.Stop()
	}
}

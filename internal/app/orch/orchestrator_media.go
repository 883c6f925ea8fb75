package orch

import (
	"context"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// RemoteVideo implements peer.Events.
func (s *Session) RemoteVideo(t core.RemoteTrack) {
	id, _ := s.Resolver.Resolve(t.StreamID())
	feed := domain.RemoteFeed{
		StreamID: t.StreamID(),
		TrackID:  t.ID(),
		PeerID:   id,
		Label:    s.label(id),
	}

	s.mu.Lock()
	if s.ended() {
		s.mu.Unlock()
		return
	}
	s.feeds[feed.StreamID] = feed
	s.mu.Unlock()

	s.logger.Info().
		Str("stream_id", feed.StreamID).
		Str("peer_id", string(feed.PeerID)).
		Bool("resolved", feed.Resolved()).
		Msg("remote feed added")
	s.view.FeedAdded(feed)
}

// RemoteVideoEnded implements peer.Events.
func (s *Session) RemoteVideoEnded(t core.RemoteTrack) {
	s.mu.Lock()
	feed, ok := s.feeds[t.StreamID()]
	if ok && feed.TrackID == t.ID() {
		delete(s.feeds, t.StreamID())
	} else {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.Resolver.ForgetStream(t.StreamID())
	s.logger.Info().Str("stream_id", feed.StreamID).Msg("remote feed ended")
	s.view.FeedRemoved(feed)
}

// Feeds lists the remote feeds currently shown.
func (s *Session) Feeds() []domain.RemoteFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RemoteFeed, 0, len(s.feeds))
	for _, f := range s.feeds {
		out = append(out, f)
	}
	return out
}

func (s *Session) ShareURL(raw string) error {
	if s.ended() {
		return core.ErrSessionClosed
	}
	return s.Share.ShareURL(raw)
}

func (s *Session) StartScreenShare(ctx context.Context) error {
	if s.ended() {
		return core.ErrSessionClosed
	}
	return s.Share.StartScreenShare(ctx)
}

func (s *Session) StopSharing() error {
	if s.ended() {
		return core.ErrSessionClosed
	}
	return s.Share.StopSharing()
}

func (s *Session) ToggleAudio() (bool, error) {
	if s.ended() {
		return false, core.ErrSessionClosed
	}
	return s.Peer.ToggleAudio(), nil
}

func (s *Session) ToggleVideo() (bool, error) {
	if s.ended() {
		return false, core.ErrSessionClosed
	}
	return s.Peer.ToggleVideo(), nil
}

package view

import (
	"errors"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogView writes every session change to the log.
type LogView struct {
	logger zerolog.Logger
}

func NewLogView(sid string) *LogView {
	return &LogView{logger: log.With().Str("module", "adapters.view").Str("sid", sid).Logger()}
}

func (v *LogView) ParticipantCount(n int) {
	v.logger.Info().Int("count", n).Msg("participants")
}

func (v *LogView) ParticipantLabel(id domain.PeerID, name string) {
	v.logger.Debug().Str("peer_id", string(id)).Str("name", name).Msg("participant")
}

func (v *LogView) FeedAdded(f domain.RemoteFeed) {
	v.feed(f).Msg("feed added")
}

func (v *LogView) FeedRelabeled(f domain.RemoteFeed) {
	v.feed(f).Msg("feed relabeled")
}

func (v *LogView) FeedRemoved(f domain.RemoteFeed) {
	v.feed(f).Msg("feed removed")
}

func (v *LogView) feed(f domain.RemoteFeed) *zerolog.Event {
	return v.logger.Info().
		Str("stream_id", f.StreamID).
		Str("peer_id", string(f.PeerID)).
		Str("label", f.Label)
}

func (v *LogView) SharedContentChanged(c domain.SharedContent) {
	if !c.Active() {
		v.logger.Info().Msg("nothing shared")
		return
	}
	v.logger.Info().
		Str("kind", string(c.Kind)).
		Str("video_id", c.VideoID).
		Str("url", c.URL).
		Str("sender", c.Sender).
		Msg("shared content")
}

func (v *LogView) ChatReceived(m domain.ChatMessage) {
	v.logger.Info().Str("from", m.Name).Time("at", m.Timestamp).Str("body", m.Body).Msg("chat")
}

func (v *LogView) SessionEnded(err error) {
	if errors.Is(err, core.ErrSessionClosed) {
		v.logger.Info().Msg(core.UserMessage(err))
		return
	}
	v.logger.Error().Err(err).Msg(core.UserMessage(err))
}

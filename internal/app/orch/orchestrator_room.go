package orch

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

func (s *Session) bindRoom() {
	s.channel.On(core.EventTrackMapping, s.onTrackMapping)
	s.channel.On(core.EventPresenceState, s.onPresenceState)
	s.channel.On(core.EventPresenceDiff, s.onPresenceDiff)
	s.channel.On(core.EventNewMessage, s.onNewMessage)
}

func (s *Session) onTrackMapping(payload json.RawMessage) {
	if s.ended() {
		return
	}
	var p core.TrackMappingPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.StreamID == "" {
		s.logger.Error().Err(err).Msg("bad track mapping")
		return
	}
	if upgraded := s.Resolver.RecordMapping(p.StreamID, domain.PeerID(p.PeerID)); upgraded {
		s.relabelFeeds()
	}
}

func (s *Session) onPresenceState(payload json.RawMessage) {
	if s.ended() {
		return
	}
	var state app.PresenceState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Error().Err(err).Msg("bad presence state")
		return
	}
	s.Presence.Sync(state)
	s.relabelFeeds()
}

func (s *Session) onPresenceDiff(payload json.RawMessage) {
	if s.ended() {
		return
	}
	var diff app.PresenceDiff
	if err := json.Unmarshal(payload, &diff); err != nil {
		s.logger.Error().Err(err).Msg("bad presence diff")
		return
	}
	s.Presence.ApplyDiff(diff)
	for id := range diff.Leaves {
		if _, present := s.Presence.Name(id); !present {
			s.dropPeerFeeds(id)
			s.Resolver.Forget(id)
		}
	}
	s.relabelFeeds()
}

// dropPeerFeeds removes every feed resolved to a peer that left the room.
func (s *Session) dropPeerFeeds(id domain.PeerID) {
	s.mu.Lock()
	var gone []domain.RemoteFeed
	for sid, f := range s.feeds {
		if mapped, ok := s.Resolver.Lookup(sid); (ok && mapped == id) || f.PeerID == id {
			delete(s.feeds, sid)
			gone = append(gone, f)
		}
	}
	s.mu.Unlock()

	for _, f := range gone {
		s.logger.Info().Str("stream_id", f.StreamID).Str("peer_id", string(id)).Msg("feed removed, peer left")
		s.view.FeedRemoved(f)
	}
}

// label is the display name for peer, falling back to the guest placeholder.
func (s *Session) label(id domain.PeerID) string {
	if name, ok := s.Presence.Name(id); ok && name != "" {
		return name
	}
	return domain.GuestName
}

// relabelFeeds re-resolves every shown feed and reports the ones that changed.
func (s *Session) relabelFeeds() {
	s.mu.Lock()
	var changed []domain.RemoteFeed
	for sid, f := range s.feeds {
		id, ok := s.Resolver.Lookup(sid)
		if !ok {
			id = f.PeerID
		}
		next := f
		next.PeerID = id
		next.Label = s.label(id)
		if next != f {
			s.feeds[sid] = next
			changed = append(changed, next)
		}
	}
	s.mu.Unlock()

	for _, f := range changed {
		s.logger.Debug().Str("stream_id", f.StreamID).Str("peer_id", string(f.PeerID)).Msg("feed relabeled")
		s.view.FeedRelabeled(f)
	}
}

type chatPayload struct {
	Body      string          `json:"body"`
	Name      string          `json:"name"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func (s *Session) onNewMessage(payload json.RawMessage) {
	if s.ended() {
		return
	}
	var p chatPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Error().Err(err).Msg("bad chat message")
		return
	}
	s.view.ChatReceived(domain.ChatMessage{
		Name:      p.Name,
		Body:      p.Body,
		Timestamp: parseTimestamp(p.Timestamp),
	})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts an ISO string or epoch milliseconds; anything else is now.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Now()
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, str); err == nil {
				return t
			}
		}
		if ms, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		return time.Now()
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Now()
}

// SendChat pushes a chat message. Blank messages are dropped.
func (s *Session) SendChat(body string) error {
	if s.ended() {
		return core.ErrSessionClosed
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}
	return s.channel.Push(core.EventNewMessage, core.BodyPayload{Body: body})
}

// replaySharedVideo makes a late joiner see a share that started before it
// arrived. Unknown types are shown as a direct video, addressed by id when
// the snapshot has no url.
func (s *Session) replaySharedVideo(res core.JoinResult) {
	v := res.SharedVideo
	if v == nil {
		return
	}
	var err error
	if v.Type == core.SharedVideoTypeYoutube {
		err = s.channel.Trigger(core.EventYoutubeShared, core.YoutubeSharedPayload{VideoID: v.ID, Sender: v.Sender})
	} else {
		target := v.URL
		if target == "" {
			target = v.ID
		}
		err = s.channel.Trigger(core.EventDirectShared, core.DirectSharedPayload{URL: target, Sender: v.Sender})
	}
	if err != nil {
		s.logger.Error().Err(err).Str("type", v.Type).Msg("replay shared video")
	}
}

package view

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Multi forwards to every view in order.
type Multi []core.View

func (m Multi) ParticipantCount(n int) {
	for _, v := range m {
		v.ParticipantCount(n)
	}
}

func (m Multi) ParticipantLabel(id domain.PeerID, name string) {
	for _, v := range m {
		v.ParticipantLabel(id, name)
	}
}

func (m Multi) FeedAdded(f domain.RemoteFeed) {
	for _, v := range m {
		v.FeedAdded(f)
	}
}

func (m Multi) FeedRelabeled(f domain.RemoteFeed) {
	for _, v := range m {
		v.FeedRelabeled(f)
	}
}

func (m Multi) FeedRemoved(f domain.RemoteFeed) {
	for _, v := range m {
		v.FeedRemoved(f)
	}
}

func (m Multi) SharedContentChanged(c domain.SharedContent) {
	for _, v := range m {
		v.SharedContentChanged(c)
	}
}

func (m Multi) ChatReceived(msg domain.ChatMessage) {
	for _, v := range m {
		v.ChatReceived(msg)
	}
}

func (m Multi) SessionEnded(err error) {
	for _, v := range m {
		v.SessionEnded(err)
	}
}

package core

import "github.com/dkeye/Huddle/internal/domain"

//go:generate mockgen -destination=mocks/mock_view.go -package=mocks . View

// View receives state changes produced by the session.
// Implementations must not call back into the session synchronously.
type View interface {
	ParticipantCount(n int)
	ParticipantLabel(id domain.PeerID, name string)

	FeedAdded(feed domain.RemoteFeed)
	FeedRelabeled(feed domain.RemoteFeed)
	FeedRemoved(feed domain.RemoteFeed)

	SharedContentChanged(content domain.SharedContent)
	ChatReceived(msg domain.ChatMessage)

	// SessionEnded reports a fatal condition; the session is inert afterwards.
	SessionEnded(err error)
}

// NopView discards everything.
type NopView struct{}

func (NopView) ParticipantCount(int)                      {}
func (NopView) ParticipantLabel(domain.PeerID, string)    {}
func (NopView) FeedAdded(domain.RemoteFeed)               {}
func (NopView) FeedRelabeled(domain.RemoteFeed)           {}
func (NopView) FeedRemoved(domain.RemoteFeed)             {}
func (NopView) SharedContentChanged(domain.SharedContent) {}
func (NopView) ChatReceived(domain.ChatMessage)           {}
func (NopView) SessionEnded(error)                        {}

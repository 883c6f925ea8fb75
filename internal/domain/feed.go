package domain

import "time"

// RemoteFeed is one inbound video stream and the participant it belongs to.
type RemoteFeed struct {
	StreamID string `json:"stream_id"`
	TrackID  string `json:"track_id"`
	PeerID   PeerID `json:"peer_id"`
	Label    string `json:"label"`
}

func (f RemoteFeed) Resolved() bool { return f.PeerID != GuestPeer && f.PeerID != "" }

type ChatMessage struct {
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

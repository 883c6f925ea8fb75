package domain

type ShareKind string

const (
	ShareNone    ShareKind = ""
	ShareYouTube ShareKind = "youtube"
	ShareDirect  ShareKind = "direct"
	// ShareEmbed is a direct URL that can only be shown as an embedded page.
	ShareEmbed  ShareKind = "embed"
	ShareScreen ShareKind = "screen"
)

// SharedContent is the room-wide shared surface as seen by this client.
type SharedContent struct {
	Kind    ShareKind `json:"kind"`
	VideoID string    `json:"video_id,omitempty"`
	URL     string    `json:"url,omitempty"`
	Sender  string    `json:"sender,omitempty"`
}

func (s SharedContent) Active() bool { return s.Kind != ShareNone }

func (s SharedContent) External() bool {
	switch s.Kind {
	case ShareYouTube, ShareDirect, ShareEmbed:
		return true
	}
	return false
}

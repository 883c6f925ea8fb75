package core

// Channel events exchanged with the room server.
const (
	EventSDPOffer      = "sdp_offer"
	EventSDPAnswer     = "sdp_answer"
	EventICECandidate  = "ice_candidate"
	EventTrackMapping  = "track_mapping"
	EventNewMessage    = "new_message"
	EventShareYoutube  = "share_youtube_video"
	EventShareDirect   = "share_direct_video"
	EventYoutubeShared = "youtube_video_shared"
	EventDirectShared  = "new_direct_video"
	EventStopShare     = "stop_video_share"
	EventShareStopped  = "video_share_stopped"
	EventPresenceState = "presence_state"
	EventPresenceDiff  = "presence_diff"
)

// SharedVideoTypeYoutube marks a youtube entry in the join snapshot.
const SharedVideoTypeYoutube = "youtube"

// BodyPayload is the {body} shape used by sdp, ice and chat events.
type BodyPayload struct {
	Body string `json:"body"`
}

type TrackMappingPayload struct {
	StreamID string `json:"stream_id"`
	PeerID   string `json:"peer_id"`
}

type YoutubeSharedPayload struct {
	VideoID string `json:"video_id"`
	Sender  string `json:"sender,omitempty"`
}

type DirectSharedPayload struct {
	URL    string `json:"url"`
	Sender string `json:"sender,omitempty"`
}

package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// Sender is one outgoing send slot of the transport. *webrtc.RTPSender satisfies it.
type Sender interface {
	Track() webrtc.TrackLocal
	// ReplaceTrack swaps the track without renegotiation.
	ReplaceTrack(track webrtc.TrackLocal) error
}

// RemoteTrack is an inbound media track. Done is closed when the track ends.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
	Done() <-chan struct{}
}

// Transport is the single media session of a room membership.
type Transport interface {
	SetRemoteDescription(webrtc.SessionDescription) error
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	LocalDescription() *webrtc.SessionDescription
	// RestartICE creates an ICE-restart offer and applies it locally.
	RestartICE() (webrtc.SessionDescription, error)
	// Rollback discards a pending local offer and reports whether there was one.
	Rollback() (bool, error)
	AddICECandidate(webrtc.ICECandidateInit) error

	AddTrack(track webrtc.TrackLocal) (Sender, error)
	Senders() []Sender
	ConnectionState() webrtc.PeerConnectionState

	// OnICECandidate receives nil once gathering is complete.
	OnICECandidate(fn func(*webrtc.ICECandidateInit))
	OnTrack(fn func(RemoteTrack))
	OnConnectionStateChange(fn func(webrtc.PeerConnectionState))

	Close() error
}

// LocalTrack is a captured local track.
type LocalTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
	// Local is the instance attached to senders; it is stable for the track lifetime.
	Local() webrtc.TrackLocal
	Enabled() bool
	SetEnabled(enabled bool)
	// Stop releases the capture. Safe to call more than once.
	Stop()
	Stopped() bool
	// Done is closed when the track stops or its source terminates.
	Done() <-chan struct{}
}

// MediaDevices grants access to capture devices.
type MediaDevices interface {
	// UserMedia captures camera and microphone.
	UserMedia(ctx context.Context) (*LocalStream, error)
	// DisplayMedia captures the screen (video only).
	DisplayMedia(ctx context.Context) (*LocalStream, error)
}

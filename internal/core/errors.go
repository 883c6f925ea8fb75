package core

import "errors"

var (
	ErrMediaUnavailable       = errors.New("media unavailable")
	ErrJoinRejected           = errors.New("join rejected")
	ErrPeerLimitReached       = errors.New("peer limit reached")
	ErrChannelClosed          = errors.New("signaling channel closed")
	ErrRestartBudgetExhausted = errors.New("ice restart budget exhausted")
	ErrSessionClosed          = errors.New("session closed")
)

const ReasonPeerLimitReached = "peer_limit_reached"

// JoinError carries the reason the server gave for refusing a join.
type JoinError struct {
	Reason string
}

func (e *JoinError) Error() string {
	if e.Reason == "" {
		return "join rejected"
	}
	return "join rejected: " + e.Reason
}

func (e *JoinError) Is(target error) bool {
	switch target {
	case ErrJoinRejected:
		return true
	case ErrPeerLimitReached:
		return e.Reason == ReasonPeerLimitReached
	}
	return false
}

// UserMessage renders err as the one-line message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPeerLimitReached):
		return "Unable to join the room: Peer limit reached. Try again in a few minutes"
	case errors.Is(err, ErrJoinRejected):
		return "Unable to join the room"
	case errors.Is(err, ErrMediaUnavailable):
		return "Could not access webcam and microphone. Please ensure permissions are granted and no other application is using the camera."
	case errors.Is(err, ErrRestartBudgetExhausted):
		return "Connection lost: the media connection could not be re-established"
	case errors.Is(err, ErrChannelClosed):
		return "Connection to the room was lost"
	case errors.Is(err, ErrSessionClosed):
		return "You left the room"
	}
	return "Unexpected error: " + err.Error()
}

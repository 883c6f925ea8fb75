package peer

type State int32

const (
	StateCreated State = iota
	StateGatheringLocalMedia
	StateAwaitingOffer
	StateNegotiating
	StateConnected
	StateFailed
	StateRestarting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateGatheringLocalMedia:
		return "gathering_local_media"
	case StateAwaitingOffer:
		return "awaiting_offer"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateRestarting:
		return "restarting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

package domain

import "strings"

type RoomID string

// Topic is the channel topic of the room on the signaling server.
func (r RoomID) Topic() string {
	return "peer:" + string(r)
}

func NormalizeRoomID(raw string) RoomID {
	return RoomID(strings.TrimSpace(raw))
}

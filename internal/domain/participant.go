// Package domain holds the room vocabulary used by every layer and the few
// rules that belong to it.
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLen is counted in characters.
	MaxNameLen = 36
	// GuestName labels a feed whose owner is not known yet.
	GuestName = "Guest"
)

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

// PeerID is the opaque server-assigned participant id.
type PeerID string

// GuestPeer is what the resolver hands out before a track mapping arrives.
const GuestPeer PeerID = GuestName

type Participant struct {
	ID   PeerID `json:"id"`
	Name string `json:"name"`
}

// ValidateName trims a display name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

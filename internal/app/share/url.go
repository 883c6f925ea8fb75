package share

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dkeye/Huddle/internal/domain"
)

var ErrInvalidShareURL = errors.New("please enter a valid YouTube, Heales video, or direct video URL")

var youtubeRe = regexp.MustCompile(`(?i)(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// embedHosts can only be shown as an embedded page.
var embedHosts = []string{"heales.com"}

var directExts = []string{".mp4", ".webm", ".ogg"}

// ExtractYoutubeVideoID returns the 11 character video id of a YouTube URL.
func ExtractYoutubeVideoID(raw string) (string, bool) {
	m := youtubeRe.FindStringSubmatch(raw)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Classify decides how a user supplied URL is shared.
func Classify(raw string) (domain.SharedContent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.SharedContent{}, ErrInvalidShareURL
	}
	if id, ok := ExtractYoutubeVideoID(raw); ok {
		return domain.SharedContent{Kind: domain.ShareYouTube, VideoID: id}, nil
	}
	if isEmbed(raw) {
		return domain.SharedContent{Kind: domain.ShareEmbed, URL: raw}, nil
	}
	for _, ext := range directExts {
		if strings.HasSuffix(raw, ext) {
			return domain.SharedContent{Kind: domain.ShareDirect, URL: raw}, nil
		}
	}
	return domain.SharedContent{}, ErrInvalidShareURL
}

func isEmbed(raw string) bool {
	for _, h := range embedHosts {
		if strings.Contains(raw, h) {
			return true
		}
	}
	return false
}

// directContent builds what a new_direct_video broadcast shows.
func directContent(rawURL, sender string) domain.SharedContent {
	kind := domain.ShareDirect
	if isEmbed(rawURL) {
		kind = domain.ShareEmbed
	}
	return domain.SharedContent{Kind: kind, URL: rawURL, Sender: sender}
}

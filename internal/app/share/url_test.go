package share

import (
	"testing"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYoutubeVideoID(t *testing.T) {
	for _, u := range []string{
		"https://youtu.be/VIDEOID1234",
		"https://www.youtube.com/watch?v=VIDEOID1234",
		"https://www.youtube.com/embed/VIDEOID1234",
		"https://www.youtube.com/watch?feature=share&v=VIDEOID1234",
		"HTTPS://WWW.YOUTUBE.COM/v/VIDEOID1234",
	} {
		id, ok := ExtractYoutubeVideoID(u)
		require.True(t, ok, u)
		assert.Equal(t, "VIDEOID1234", id, u)
	}

	for _, u := range []string{
		"https://vimeo.com/123456789",
		"https://example.com/watch?v=VIDEOID1234",
		"https://youtu.be/short",
		"",
	} {
		_, ok := ExtractYoutubeVideoID(u)
		assert.False(t, ok, u)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want domain.SharedContent
	}{
		{"https://youtu.be/VIDEOID1234", domain.SharedContent{Kind: domain.ShareYouTube, VideoID: "VIDEOID1234"}},
		{"  https://cdn.example.com/clip.mp4 ", domain.SharedContent{Kind: domain.ShareDirect, URL: "https://cdn.example.com/clip.mp4"}},
		{"https://cdn.example.com/clip.webm", domain.SharedContent{Kind: domain.ShareDirect, URL: "https://cdn.example.com/clip.webm"}},
		{"https://cdn.example.com/a.ogg", domain.SharedContent{Kind: domain.ShareDirect, URL: "https://cdn.example.com/a.ogg"}},
		{"https://www.heales.com/watch/42", domain.SharedContent{Kind: domain.ShareEmbed, URL: "https://www.heales.com/watch/42"}},
	}
	for _, tc := range cases {
		got, err := Classify(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "   ", "https://example.com/page", "https://example.com/clip.mp4?x=1"} {
		_, err := Classify(bad)
		assert.ErrorIs(t, err, ErrInvalidShareURL, bad)
	}
}

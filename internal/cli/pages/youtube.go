package pages

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrNotYouTube = errors.New("the URL is not a YouTube URL")
	ErrNoVideoID  = errors.New("could not extract the video ID")
)

// EmbeddedYouTubeURL turns a watch URL (https://www.youtube.com/watch?v=ID)
// into its embeddable form
func EmbeddedYouTubeURL(raw string) (string, error) {
	if !strings.Contains(raw, "youtube.com") {
		return "", ErrNotYouTube
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrNoVideoID
	}

	videoID := u.Query().Get("v")
	if videoID == "" {
		return "", ErrNoVideoID
	}

	return "https://www.youtube.com/embed/" + url.PathEscape(videoID), nil
}

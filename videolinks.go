package canchannels

import (
	"net/url"
	"strings"
)

// VideoReference is an embeddable video detected among a post's links.
type VideoReference struct {
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
}

// ThumbnailQuality is a thumbnail resolution tier. Callers are expected to
// fall back to a lower tier when an image fails to load.
type ThumbnailQuality string

const (
	ThumbMaxRes  ThumbnailQuality = "maxresdefault"
	ThumbHigh    ThumbnailQuality = "hqdefault"
	ThumbMedium  ThumbnailQuality = "mqdefault"
	ThumbDefault ThumbnailQuality = "default"
)

// videoIDMatcher extracts a platform-native video id from one known URL
// shape, returning "" when the shape does not apply. Matchers are tried in
// order; nested branching per shape is deliberately avoided.
type videoIDMatcher func(u *url.URL) string

var videoIDMatchers = []videoIDMatcher{
	// youtube.com/watch?v=ID
	func(u *url.URL) string {
		if strings.HasPrefix(u.Path, "/watch") {
			return u.Query().Get("v")
		}
		return ""
	},
	// youtu.be/ID
	func(u *url.URL) string {
		if hostIs(u, "youtu.be") {
			return strings.TrimPrefix(u.Path, "/")
		}
		return ""
	},
	// youtube.com/embed/ID
	func(u *url.URL) string {
		if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			return rest
		}
		return ""
	},
	// youtube.com/v/ID
	func(u *url.URL) string {
		if rest, ok := strings.CutPrefix(u.Path, "/v/"); ok {
			return rest
		}
		return ""
	},
}

// FindVideoReference scans links in order and returns the first entry whose
// URL points at a recognized video platform, along with its extracted video
// id. Returns nil when no link matches.
func FindVideoReference(links []Link) *VideoReference {
	for _, link := range links {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if !videoHost(u) {
			continue
		}
		for _, match := range videoIDMatchers {
			if id := cleanVideoID(match(u)); id != "" {
				return &VideoReference{URL: link.URL, VideoID: id}
			}
		}
	}
	return nil
}

// ThumbnailURL builds the deterministic thumbnail address for a video id at
// the given quality tier.
func ThumbnailURL(videoID string, quality ThumbnailQuality) string {
	return "https://img.youtube.com/vi/" + videoID + "/" + string(quality) + ".jpg"
}

func videoHost(u *url.URL) bool {
	return hostIs(u, "youtube.com") || hostIs(u, "youtu.be")
}

func hostIs(u *url.URL, host string) bool {
	h := strings.ToLower(u.Hostname())
	return h == host || strings.HasSuffix(h, "."+host)
}

// cleanVideoID strips anything after an embedded query delimiter and any
// trailing slash from an extracted path segment.
func cleanVideoID(id string) string {
	if i := strings.IndexByte(id, '&'); i >= 0 {
		id = id[:i]
	}
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSuffix(id, "/")
}

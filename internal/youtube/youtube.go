// Package youtube recognises YouTube links in free text.
package youtube

import (
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(
	`(?:https?://)?(?:www\.|m\.|music\.)?(?:youtube\.com/(?:watch\?(?:[^\s#]*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^\s]*)?`,
)

// Link is a YouTube reference found in text
type Link struct {
	VideoID string
	// Match is the exact substring that was recognised
	Match string
}

// Find returns the first YouTube link in text
func Find(text string) (Link, bool) {
	m := linkPattern.FindStringSubmatch(text)
	if m == nil {
		return Link{}, false
	}
	return Link{VideoID: m[1], Match: m[0]}, true
}

// ExtractVideoID returns the id of the first YouTube link in text, or ""
func ExtractVideoID(text string) string {
	link, _ := Find(text)
	return link.VideoID
}

// WatchURL returns the canonical watch URL for id
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// StripLink removes the recognised link from text and tidies whitespace
func StripLink(text string, link Link) string {
	return strings.Join(strings.Fields(strings.Replace(text, link.Match, "", 1)), " ")
}

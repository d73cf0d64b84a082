package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoResults decodes a JSON array of search results, keeping only
// entries with a well formed video id and a title.
func ParseVideoResults(raw string) ([]YouTubeVideo, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse video results: %w", err)
	}

	videos := make([]YouTubeVideo, 0, len(items))
	for _, item := range items {
		var v YouTubeVideo
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		v.VideoID = strings.TrimSpace(v.VideoID)
		v.Title = strings.TrimSpace(v.Title)
		if !videoIDPattern.MatchString(v.VideoID) || v.Title == "" {
			continue
		}
		if v.ThumbnailURL == "" {
			v.ThumbnailURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", v.VideoID)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":                  "dQw4w9WgXcQ",
		"look at youtube.com/watch?feature=share&v=dQw4w9WgXcQ please": "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=42":                            "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abcdefghijk":                   "abcdefghijk",
		"https://www.youtube.com/embed/abcdefghijk":                    "abcdefghijk",
		"https://m.youtube.com/live/abc_def-ghi":                       "abc_def-ghi",
		"no link here":                                                 "",
		"https://vimeo.com/123456789":                                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractVideoID(in), in)
	}
}

func TestStripLink(t *testing.T) {
	text := "summarize https://youtu.be/dQw4w9WgXcQ  in three bullets"
	link, ok := Find(text)
	assert.True(t, ok)
	assert.Equal(t, "summarize in three bullets", StripLink(text, link))
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", WatchURL(link.VideoID))
}

package cmd

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/config"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReplyRaw(t *testing.T) {
	msg := chat.NewMessage(chat.RoleModel, "The answer is **42**.")
	msg.GroundingSources = []chat.GroundingSource{{URI: "https://example.com", Title: "Example"}}

	var buf bytes.Buffer
	require.NoError(t, printReply(&buf, msg, true))
	assert.Equal(t, "The answer is **42**.\n\nSources:\n1. [Example](https://example.com)\n", buf.String())
}

func TestAppOptions(t *testing.T) {
	logger = log.New(&bytes.Buffer{})
	c := &config.Config{}
	c.Data.Directory = t.TempDir()
	c.Speech.SynthCommand = []string{"espeak", "{text}"}
	c.Screen.Command = []string{"grim", "-"}
	c.TUI.AutoSpeak = true

	state := config.NewState()
	state.Mode = string(prompt.ModeExplain)

	opts, err := appOptions(c, state)
	require.NoError(t, err)
	assert.Equal(t, prompt.ModeExplain, opts.Mode)
	assert.True(t, opts.AutoSpeak)
	assert.NotNil(t, opts.Screen)
	assert.NotNil(t, opts.Synthesizer)
	assert.Nil(t, opts.Recognizer)
	assert.NotNil(t, opts.Mic)
	assert.NotNil(t, opts.Clipboard)
}

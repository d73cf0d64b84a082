package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MEDIAFORGE_GEMINI_APIKEY", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	c, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.Gemini.Model)
	assert.Equal(t, 3, c.Retry.MaxRetries)
	assert.Equal(t, time.Second, c.Retry.BaseDelay)
	assert.Equal(t, int64(10<<20), c.Upload.MaxBytes)
	assert.Equal(t, 160, c.Speech.ChunkBudget)
	assert.Equal(t, []string{"espeak", "{text}"}, c.Speech.SynthCommand)
	assert.Equal(t, log.InfoLevel, c.LogLevel())
	assert.ErrorIs(t, c.Validate(), ErrNoAPIKey)
	assert.Same(t, c, Get())
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Run("gemini key fallback", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "from-gemini")
		c, err := Load("", false)
		require.NoError(t, err)
		assert.Equal(t, "from-gemini", c.Gemini.APIKey)
		assert.NoError(t, c.Validate())
	})

	t.Run("prefixed variables", func(t *testing.T) {
		t.Setenv("MEDIAFORGE_GEMINI_MODEL", "gemini-2.5-pro")
		t.Setenv("MEDIAFORGE_RETRY_MAXRETRIES", "5")
		c, err := Load("", false)
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-pro", c.Gemini.Model)
		assert.Equal(t, 5, c.Retry.MaxRetries)
	})

	t.Run("debug forces level", func(t *testing.T) {
		c, err := Load("", true)
		require.NoError(t, err)
		assert.True(t, c.Debug)
		assert.Equal(t, log.DebugLevel, c.LogLevel())
	})
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mediaforge", "config.toml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[retry]")
	assert.Contains(t, string(data), `baseDelay = "1s"`)

	c, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, c.Upload.PollInterval)
	assert.Equal(t, 30, c.Audio.FrameRate)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), false)
	assert.Error(t, err)
}

func TestState(t *testing.T) {
	dir := t.TempDir()
	path := StatePath(dir)

	s, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, "chat", s.Mode)

	s.Mode = "summarize"
	s.AutoSpeak = true
	require.NoError(t, SaveState(path, s))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

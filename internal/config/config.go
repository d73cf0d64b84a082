package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GeminiConfig holds backend credentials
type GeminiConfig struct {
	APIKey string `mapstructure:"apiKey" toml:"apiKey"`
	Model  string `mapstructure:"model" toml:"model"`
}

// UploadConfig limits attachments and paces upload polling
type UploadConfig struct {
	MaxBytes     int64         `mapstructure:"maxBytes" toml:"maxBytes"`
	PollInterval time.Duration `mapstructure:"pollInterval" toml:"pollInterval"`
}

// SpeechConfig selects the speech engines
type SpeechConfig struct {
	ChunkBudget       int      `mapstructure:"chunkBudget" toml:"chunkBudget"`
	SynthCommand      []string `mapstructure:"synthCommand" toml:"synthCommand"`
	RecognizerCommand []string `mapstructure:"recognizerCommand" toml:"recognizerCommand"`
}

// AudioConfig selects the capture and playback commands
type AudioConfig struct {
	CaptureCommand []string `mapstructure:"captureCommand" toml:"captureCommand"`
	SampleRate     int      `mapstructure:"sampleRate" toml:"sampleRate"`
	PlayerCommand  []string `mapstructure:"playerCommand" toml:"playerCommand"`
	FrameRate      int      `mapstructure:"frameRate" toml:"frameRate"`
}

// ScreenConfig selects the screenshot command
type ScreenConfig struct {
	Command  []string `mapstructure:"command" toml:"command"`
	MaxWidth int      `mapstructure:"maxWidth" toml:"maxWidth"`
}

// ContextConfig controls context file globbing
type ContextConfig struct {
	RespectGitignore bool `mapstructure:"respectGitignore" toml:"respectGitignore"`
}

// Data defines storage configuration
type Data struct {
	Directory string `mapstructure:"directory" toml:"directory"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// TUIConfig defines terminal UI configuration
type TUIConfig struct {
	AutoSpeak bool `mapstructure:"autoSpeak" toml:"autoSpeak"`
	// Theme is a catppuccin flavour: latte, frappe, macchiato or mocha
	Theme string `mapstructure:"theme" toml:"theme"`
}

// Config is the main configuration structure for the application
type Config struct {
	Gemini  GeminiConfig     `mapstructure:"gemini" toml:"gemini"`
	Retry   llm.RetryOptions `mapstructure:"retry" toml:"retry"`
	Upload  UploadConfig     `mapstructure:"upload" toml:"upload"`
	Speech  SpeechConfig     `mapstructure:"speech" toml:"speech"`
	Audio   AudioConfig      `mapstructure:"audio" toml:"audio"`
	Screen  ScreenConfig     `mapstructure:"screen" toml:"screen"`
	Context ContextConfig    `mapstructure:"context" toml:"context"`
	Data    Data             `mapstructure:"data" toml:"data"`
	Log     LogConfig        `mapstructure:"log" toml:"log"`
	TUI     TUIConfig        `mapstructure:"tui" toml:"tui"`
	Debug   bool             `mapstructure:"debug" toml:"-"`
}

// Application constants
const (
	appName              = "mediaforge"
	defaultDataDirectory = ".mediaforge"
	defaultLogLevel      = "info"
	defaultModel         = "gemini-2.5-flash"
)

// ErrNoAPIKey is returned by Validate when no key is configured
var ErrNoAPIKey = errors.New("no Gemini API key: set GEMINI_API_KEY or gemini.apiKey")

var (
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
)

// Load reads configuration from file and environment. An empty configFile
// searches the default locations.
func Load(configFile string, debug bool) (*Config, error) {
	vp := viper.New()
	configureViper(vp, configFile)
	setDefaults(vp, debug)

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	loaded, err := decode(vp)
	if err != nil {
		return nil, err
	}
	if debug {
		loaded.Debug = true
		loaded.Log.Level = "debug"
	}

	mu.Lock()
	cfg, v = loaded, vp
	mu.Unlock()
	return loaded, nil
}

// configureViper sets up viper's configuration paths and environment variables
func configureViper(vp *viper.Viper, configFile string) {
	if configFile != "" {
		vp.SetConfigFile(configFile)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("toml")
		vp.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
		vp.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
		vp.AddConfigPath(".")
	}
	vp.SetEnvPrefix(strings.ToUpper(appName))
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	_ = vp.BindEnv("gemini.apiKey", "MEDIAFORGE_GEMINI_APIKEY", "GEMINI_API_KEY")
}

// setDefaults configures default values for configuration options
func setDefaults(vp *viper.Viper, debug bool) {
	for key, value := range defaults() {
		vp.SetDefault(key, value)
	}
	vp.SetDefault("debug", debug)
}

func defaults() map[string]any {
	return map[string]any{
		"gemini.apiKey":            "",
		"gemini.model":             defaultModel,
		"retry.maxRetries":         llm.DefaultRetryOptions.MaxRetries,
		"retry.baseDelay":          llm.DefaultRetryOptions.BaseDelay,
		"retry.maxDelay":           llm.DefaultRetryOptions.MaxDelay,
		"upload.maxBytes":          int64(10 << 20),
		"upload.pollInterval":      2 * time.Second,
		"speech.chunkBudget":       160,
		"speech.synthCommand":      []string{"espeak", "{text}"},
		"speech.recognizerCommand": []string{},
		"audio.captureCommand":     []string{"arecord", "-q", "-f", "S16_LE", "-c", "1", "-r", "16000", "-t", "raw"},
		"audio.sampleRate":         16000,
		"audio.playerCommand":      []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-ss", "{offset}", "{file}"},
		"audio.frameRate":          30,
		"screen.command":           []string{"grim", "-"},
		"screen.maxWidth":          1280,
		"context.respectGitignore": true,
		"data.directory":           defaultDataDirectory,
		"log.level":                defaultLogLevel,
		"tui.autoSpeak":            false,
		"tui.theme":                "mocha",
	}
}

func decode(vp *viper.Viper) (*Config, error) {
	var c Config
	if err := vp.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if c.Data.Directory == "" {
		c.Data.Directory = defaultDataDirectory
	}
	return &c, nil
}

// Get returns the configuration loaded last
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("retry.maxRetries must be at least 1, got %d", c.Retry.MaxRetries)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.maxBytes must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}

// LogLevel parses the configured level, falling back to info
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Watch reloads the config file when it changes and hands the new
// configuration to fn. It does nothing when no file was read.
func Watch(fn func(*Config)) {
	mu.RLock()
	vp := v
	mu.RUnlock()
	if vp == nil || vp.ConfigFileUsed() == "" {
		return
	}
	vp.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloaded, err := decode(vp)
		if err != nil {
			log.Warn("config reload failed", "file", e.Name, "err", err)
			return
		}
		mu.Lock()
		reloaded.Debug = cfg.Debug
		if cfg.Debug {
			reloaded.Log.Level = "debug"
		}
		cfg = reloaded
		mu.Unlock()
		log.Info("config reloaded", "file", e.Name)
		fn(reloaded)
	})
	vp.WatchConfig()
}

// DefaultPath returns the config file location used by WriteDefault
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./mediaforge-config.toml"
	}
	return filepath.Join(homeDir, ".config", appName, "config.toml")
}

// WriteDefault writes a config file holding every default. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tree := make(map[string]map[string]any)
	for key, value := range defaults() {
		section, name, _ := strings.Cut(key, ".")
		if tree[section] == nil {
			tree[section] = make(map[string]any)
		}
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		tree[section][name] = value
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tree); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Package app holds the session state and runs every user operation:
// composing a message, sending it, and driving the media around it.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/entrepeneur4lyf/mediaforge/internal/speech"
)

var (
	ErrBusy           = errors.New("a message is already being sent")
	ErrMicUnavailable = errors.New("microphone is not available")
	ErrNotSharing     = errors.New("screen sharing is not active")
	ErrNoVideo        = errors.New("no video loaded")
	ErrNoReply        = errors.New("no reply to use yet")
	ErrUnknownMode    = errors.New("unknown mode")
	ErrEmptyHistory   = errors.New("no chat history to export")
)

// Microphone is a capture stream the visualizer can tap
type Microphone interface {
	audio.MicTap
	Available() bool
	Start(ctx context.Context) error
	Stop() error
}

// Options wires an App to its collaborators
type Options struct {
	Backend llm.Backend
	Retry   llm.RetryOptions
	// Sleep replaces the dispatcher's backoff wait
	Sleep func(context.Context, time.Duration) error

	MaxUploadBytes   int64
	PreviewDir       string
	WorkDir          string
	RespectGitignore bool

	Screen         media.ScreenSource
	ScreenMaxWidth int
	Mic            Microphone
	Recognizer     speech.Recognizer
	Synthesizer    speech.Synthesizer
	ChunkBudget    int
	PlayerCommand  []string

	Mode      prompt.Mode
	AutoSpeak bool

	Clipboard func(string) error
	Now       func() time.Time
	Logger    *log.Logger
}

type attachment struct {
	prompt.Attachment
	preview *media.Preview
}

type video struct {
	prompt.VideoContext
	element *audio.WAVElement
}

// App is the single source of truth for the session. Every mutation is
// published on Events.
type App struct {
	opts       Options
	backend    llm.Backend
	dispatcher *llm.Dispatcher
	store      *chat.Store
	files      *media.ContextFiles
	captures   *media.Captures
	previews   *media.Previews
	visualizer *audio.Visualizer
	speech     *speech.Bridge
	events     *events.Broker[Change]
	logger     *log.Logger

	uploadCtx    context.Context
	cancelUpload context.CancelFunc
	uploads      sync.WaitGroup

	mu         sync.Mutex
	input      string
	interim    string
	attachment *attachment
	video      *video
	mode       prompt.Mode
	status     string
	errMsg     string
	errGen     int
	processing bool
	sharing    bool
	recording  bool
	speaking   bool
	autoSpeak  bool
	closed     bool
}

// New creates an App
func New(opts Options) (*App, error) {
	if opts.Backend == nil {
		return nil, errors.New("app: backend is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = media.DefaultMaxBytes
	}
	if opts.ScreenMaxWidth <= 0 {
		opts.ScreenMaxWidth = media.DefaultCaptureWidth
	}
	if opts.PreviewDir == "" {
		opts.PreviewDir = filepath.Join(os.TempDir(), "mediaforge-previews")
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = llm.DefaultRetryOptions
	}
	if !opts.Mode.Valid() {
		opts.Mode = prompt.ModeChat
	}

	previews, err := media.NewPreviews(opts.PreviewDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		opts:       opts,
		backend:    opts.Backend,
		store:      chat.NewStore(),
		files:      &media.ContextFiles{},
		captures:   &media.Captures{},
		previews:   previews,
		visualizer: audio.NewVisualizer(opts.Logger.WithPrefix("audio")),
		events:     events.NewBroker[Change](),
		logger:     opts.Logger,
		mode:       opts.Mode,
		autoSpeak:  opts.AutoSpeak,
	}
	a.uploadCtx, a.cancelUpload = context.WithCancel(context.Background())

	dispatchOpts := []llm.DispatcherOption{
		llm.WithProgress(a.setStatus),
		llm.WithLogger(opts.Logger.WithPrefix("dispatch")),
	}
	if opts.Sleep != nil {
		dispatchOpts = append(dispatchOpts, llm.WithSleep(opts.Sleep))
	}
	a.dispatcher = llm.NewDispatcher(opts.Backend, opts.Retry, dispatchOpts...)

	a.speech = speech.NewBridge(opts.Recognizer, opts.Synthesizer, speech.Options{
		Transcript:  a.appendTranscript,
		Interim:     a.setInterim,
		Error:       func(err error) { a.SetError(fmt.Sprintf("Speech error: %v", err)) },
		Listening:   a.listeningChanged,
		Speaking:    a.setSpeaking,
		ChunkBudget: opts.ChunkBudget,
		Logger:      opts.Logger.WithPrefix("speech"),
	})

	a.store.OnChange(func(kind chat.ChangeKind, msg chat.Message) {
		switch kind {
		case chat.ChangeAppended:
			a.publish(events.ConversationAppended, Change{Message: msg})
		case chat.ChangeRemoved:
			a.publish(events.ConversationRemoved, Change{Message: msg})
		case chat.ChangeReplaced:
			a.publish(events.ConversationReplaced, Change{})
		}
	})

	return a, nil
}

// Events returns the broker carrying every state change
func (a *App) Events() *events.Broker[Change] {
	return a.events
}

// Visualizer returns the spectrum source for the audio loop
func (a *App) Visualizer() *audio.Visualizer {
	return a.visualizer
}

// Messages returns the conversation log
func (a *App) Messages() []chat.Message {
	return a.store.Messages()
}

func (a *App) publish(t events.EventType, c Change) {
	a.events.Publish(t, c)
}

// Close stops every background activity and releases temporary files
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	recording := a.recording
	v := a.video
	att := a.attachment
	a.video, a.attachment = nil, nil
	a.mu.Unlock()

	a.cancelUpload()
	a.uploads.Wait()

	var errs []error
	if err := a.speech.Close(); err != nil {
		errs = append(errs, err)
	}
	if recording && a.opts.Mic != nil {
		if err := a.opts.Mic.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	a.visualizer.Close()
	if v != nil && v.element != nil {
		_ = v.element.Close()
	}
	if att != nil {
		att.preview.Release()
	}
	a.previews.ReleaseAll()
	a.events.Shutdown()
	return errors.Join(errs...)
}

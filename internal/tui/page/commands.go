package page

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/dialogs"
	"github.com/entrepeneur4lyf/mediaforge/internal/youtube"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArg     = errors.New("missing argument")
	errNotFound       = errors.New("not found")
)

type command struct {
	name string
	args string
	help string
	run  func(p *ChatPage, arg string) tea.Cmd
}

var commands []command

func init() {
	commands = []command{
		{"attach", "<path>", "attach an image, audio, video or PDF file", (*ChatPage).cmdAttach},
		{"detach", "", "drop the pending attachment", (*ChatPage).cmdDetach},
		{"context", "<glob>...", "upload files as persistent context", (*ChatPage).cmdContext},
		{"uncontext", "<id|name>", "remove a context file", (*ChatPage).cmdUncontext},
		{"video", "<path>|clear", "set or clear the video/audio context", (*ChatPage).cmdVideo},
		{"share", "", "start or stop screen sharing", (*ChatPage).cmdShare},
		{"capture", "", "grab a frame of the shared screen", (*ChatPage).cmdCapture},
		{"uncapture", "<id>", "remove a pending screen capture", (*ChatPage).cmdUncapture},
		{"mic", "", "start or stop the microphone", (*ChatPage).cmdMic},
		{"speak", "[on|off|stop]", "read the last reply aloud, or toggle auto-speak", (*ChatPage).cmdSpeak},
		{"mode", "[name]", "show or switch the assistant mode", (*ChatPage).cmdMode},
		{"yt", "<query>|<n>", "search YouTube, or insert result n into the input", (*ChatPage).cmdYouTube},
		{"export", "[dir]", "save the chat history as JSON", (*ChatPage).cmdExport},
		{"import", "<path>", "replace the chat with a saved history", (*ChatPage).cmdImport},
		{"clear", "", "clear the conversation", (*ChatPage).cmdClear},
		{"copy", "", "copy the last reply to the clipboard", (*ChatPage).cmdCopy},
		{"help", "", "show keys and commands", (*ChatPage).cmdHelp},
	}
}

// ParseCommand splits "/name args" into its parts
func ParseCommand(line string) (name, arg string, ok bool) {
	if !strings.HasPrefix(line, "/") || len(line) < 2 {
		return "", "", false
	}
	name, arg, _ = strings.Cut(line[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(arg), true
}

// HelpSections lists the keys and slash commands for the help dialog
func HelpSections() []dialogs.Section {
	keys := dialogs.Section{Title: "Keys", Entries: []dialogs.Entry{
		{Key: chatKeys.Send.Help().Key, Desc: chatKeys.Send.Help().Desc},
		{Key: chatKeys.Newline.Help().Key, Desc: chatKeys.Newline.Help().Desc},
		{Key: chatKeys.ToggleFocus.Help().Key, Desc: chatKeys.ToggleFocus.Help().Desc},
		{Key: chatKeys.TogglePlayer.Help().Key, Desc: chatKeys.TogglePlayer.Help().Desc},
		{Key: "ctrl+c", Desc: "quit"},
	}}
	cmds := dialogs.Section{Title: "Commands"}
	for _, c := range commands {
		k := "/" + c.name
		if c.args != "" {
			k += " " + c.args
		}
		cmds.Entries = append(cmds.Entries, dialogs.Entry{Key: k, Desc: c.help})
	}
	return []dialogs.Section{keys, cmds}
}

func (p *ChatPage) runCommand(name, arg string) tea.Cmd {
	for _, c := range commands {
		if c.name == name {
			return c.run(p, arg)
		}
	}
	err := fmt.Errorf("%w /%s (try /help)", errUnknownCommand, name)
	return func() tea.Msg { return commandDoneMsg{err: err} }
}

func need(arg, what string) error {
	if arg == "" {
		return fmt.Errorf("%w: %s", errMissingArg, what)
	}
	return nil
}

func (p *ChatPage) cmdAttach(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if err := need(arg, "path"); err != nil {
			return "", err
		}
		return "", p.app.Attach(arg)
	})
}

func (p *ChatPage) cmdDetach(string) tea.Cmd {
	p.app.ClearAttachment()
	return nil
}

func (p *ChatPage) cmdContext(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if err := need(arg, "file pattern"); err != nil {
			return "", err
		}
		names, err := p.app.AddContextFiles(strings.Fields(arg)...)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "", fmt.Errorf("%w: no files match %s", errNotFound, arg)
		}
		return fmt.Sprintf("Uploading %d context file(s): %s", len(names), strings.Join(names, ", ")), nil
	})
}

func (p *ChatPage) cmdUncontext(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if err := need(arg, "context file id or name"); err != nil {
			return "", err
		}
		if !p.app.RemoveContextFile(arg) {
			return "", fmt.Errorf("context file %q %w", arg, errNotFound)
		}
		return "", nil
	})
}

func (p *ChatPage) cmdVideo(arg string) tea.Cmd {
	return p.run(func(ctx context.Context) (string, error) {
		switch arg {
		case "":
			return "", need(arg, "path")
		case "clear", "off":
			p.app.ClearVideo()
			return "", nil
		}
		if err := p.app.SetVideo(ctx, arg); err != nil {
			return "", err
		}
		return "Video ready. Ask a question about it; press Esc then Space to play WAV audio.", nil
	})
}

func (p *ChatPage) cmdShare(string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if p.app.Sharing() {
			p.app.StopSharing()
			return "", nil
		}
		if err := p.app.StartSharing(); err != nil {
			return "", err
		}
		return "Screen sharing on. Use /capture to grab a frame.", nil
	})
}

func (p *ChatPage) cmdCapture(string) tea.Cmd {
	return p.run(func(ctx context.Context) (string, error) {
		c, err := p.app.CaptureFrame(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Captured %dx%d (%s)", c.Width, c.Height, shortID(c.ID)), nil
	})
}

func (p *ChatPage) cmdUncapture(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if err := need(arg, "capture id"); err != nil {
			return "", err
		}
		if !p.app.RemoveCapture(arg) {
			return "", fmt.Errorf("capture %q %w", arg, errNotFound)
		}
		return "", nil
	})
}

func (p *ChatPage) cmdMic(string) tea.Cmd {
	return p.run(func(ctx context.Context) (string, error) {
		return "", p.app.ToggleMic(ctx)
	})
}

func (p *ChatPage) cmdSpeak(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		switch strings.ToLower(arg) {
		case "on":
			p.app.SetAutoSpeak(true)
			return "Replies will be read aloud.", nil
		case "off":
			p.app.SetAutoSpeak(false)
			return "Auto-speak off.", nil
		case "stop":
			p.app.StopSpeaking()
			return "", nil
		case "":
			return "", p.app.SpeakLastReply()
		default:
			return "", fmt.Errorf("%w: /speak takes on, off or stop", errMissingArg)
		}
	})
}

func (p *ChatPage) cmdMode(arg string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		if arg == "" {
			current := p.app.Mode()
			var lines []string
			for _, m := range prompt.Modes() {
				marker := "  "
				if m == current {
					marker = "* "
				}
				lines = append(lines, marker+string(m))
			}
			return "Modes:\n" + strings.Join(lines, "\n"), nil
		}
		m, err := p.app.SetMode(arg)
		if err != nil {
			return "", err
		}
		return "Mode: " + string(m), nil
	})
}

func (p *ChatPage) cmdYouTube(arg string) tea.Cmd {
	if err := need(arg, "search query"); err != nil {
		return func() tea.Msg { return commandDoneMsg{err: err} }
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return p.pickResult(n)
	}
	ctx := p.ctx
	return func() tea.Msg {
		videos, err := p.app.SearchYouTube(ctx, arg)
		if err != nil {
			return commandDoneMsg{err: err}
		}
		return commandDoneMsg{notice: FormatResults(videos), results: videos}
	}
}

// pickResult appends the watch URL of result n to the input
func (p *ChatPage) pickResult(n int) tea.Cmd {
	if n < 1 || n > len(p.results) {
		err := fmt.Errorf("result %d %w; run /yt <query> first", n, errNotFound)
		return func() tea.Msg { return commandDoneMsg{err: err} }
	}
	url := youtube.WatchURL(p.results[n-1].VideoID)
	text := strings.TrimSpace(p.editor.Value() + " " + url)
	p.editor.SetValue(text)
	p.editor.CursorEnd()
	p.pushInput()
	return nil
}

// FormatResults lists search results for the notice area
func FormatResults(videos []llm.YouTubeVideo) string {
	if len(videos) == 0 {
		return "No videos found."
	}
	lines := []string{"YouTube results (/yt <n> to use one):"}
	for i, v := range videos {
		lines = append(lines, fmt.Sprintf("%d. %s  %s", i+1, v.Title, youtube.WatchURL(v.VideoID)))
	}
	return strings.Join(lines, "\n")
}

func (p *ChatPage) cmdExport(arg string) tea.Cmd {
	dir := arg
	if dir == "" {
		dir = p.opts.ExportDir
	}
	if dir == "" {
		dir = "."
	}
	return p.run(func(context.Context) (string, error) {
		path, err := p.app.ExportHistory(dir)
		if err != nil {
			return "", err
		}
		return "Saved " + path, nil
	})
}

func (p *ChatPage) cmdImport(arg string) tea.Cmd {
	return p.run(func(ctx context.Context) (string, error) {
		if err := need(arg, "path"); err != nil {
			return "", err
		}
		n, err := p.app.ImportHistory(ctx, arg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded %d messages.", n), nil
	})
}

func (p *ChatPage) cmdClear(string) tea.Cmd {
	p.notice = ""
	p.results = nil
	return p.run(func(ctx context.Context) (string, error) {
		return "", p.app.ClearChat(ctx)
	})
}

func (p *ChatPage) cmdCopy(string) tea.Cmd {
	return p.run(func(context.Context) (string, error) {
		return "", p.app.CopyLastReply()
	})
}

func (p *ChatPage) cmdHelp(string) tea.Cmd {
	return func() tea.Msg { return OpenHelpMsg{} }
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// DefaultPollInterval is the wait between upload status checks
const DefaultPollInterval = 2 * time.Second

const youtubeSearchPrompt = `Search YouTube for videos about: %q.
Return ONLY a JSON array of up to 5 results. Each element must be an object with
"videoId" (the 11 character YouTube id), "title", and "thumbnailUrl".`

// GeminiOptions configures the Gemini backend
type GeminiOptions struct {
	APIKey       string
	Model        string
	PollInterval time.Duration
	Logger       *log.Logger
}

// Gemini implements llm.Backend on the Google Gen AI SDK. Plain text turns
// go through a multi-turn chat session; media turns are one-shot requests.
type Gemini struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
	logger       *log.Logger

	mu          sync.Mutex
	session     *genai.Chat
	instruction string
}

// NewGemini creates a client for the Gemini API
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Gemini{
		client:       client,
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}, nil
}

// Model returns the configured model name
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends one assembled request
func (g *Gemini) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	parts := toParts(req)
	config := generateConfig(req)

	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if req.Conversational {
		var session *genai.Chat
		session, err = g.sessionFor(ctx, req.SystemInstruction)
		if err != nil {
			return nil, wrapError(err)
		}
		values := make([]genai.Part, len(parts))
		for i, p := range parts {
			values[i] = *p
		}
		resp, err = session.SendMessage(ctx, values...)
	} else {
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
		resp, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
	}
	if err != nil {
		return nil, wrapError(err)
	}

	g.logger.Debug("gemini response", "conversational", req.Conversational, "parts", len(parts))
	return &llm.Response{Text: resp.Text(), Grounding: groundingSources(resp)}, nil
}

func toParts(req *llm.Request) []*genai.Part {
	var parts []*genai.Part
	if req.YouTubeURL != "" {
		parts = append(parts, &genai.Part{FileData: &genai.FileData{FileURI: req.YouTubeURL, MIMEType: "video/*"}})
	}
	for _, p := range req.Parts {
		switch p.Kind {
		case llm.PartText:
			parts = append(parts, genai.NewPartFromText(p.Text))
		case llm.PartImage, llm.PartInlineData:
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		case llm.PartFileRef:
			parts = append(parts, genai.NewPartFromURI(p.URI, p.MIMEType))
		}
	}
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	return parts
}

func generateConfig(req *llm.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return config
}

// sessionFor returns the chat session, rebuilding it when the system
// instruction changed. History carries over.
func (g *Gemini) sessionFor(ctx context.Context, instruction string) (*genai.Chat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil && g.instruction == instruction {
		return g.session, nil
	}
	var history []*genai.Content
	if g.session != nil {
		history = g.session.History(false)
	}
	return g.newSessionLocked(ctx, instruction, history)
}

func (g *Gemini) newSessionLocked(ctx context.Context, instruction string, history []*genai.Content) (*genai.Chat, error) {
	config := generateConfig(&llm.Request{SystemInstruction: instruction, UseSearch: true})
	session, err := g.client.Chats.Create(ctx, g.model, config, history)
	if err != nil {
		return nil, err
	}
	g.session = session
	g.instruction = instruction
	return session, nil
}

// ResetSession replaces the multi-turn session with one seeded from history
func (g *Gemini) ResetSession(ctx context.Context, history []chat.Message) error {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.Text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == chat.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := g.newSessionLocked(ctx, g.instruction, contents); err != nil {
		return wrapError(err)
	}
	g.logger.Debug("gemini session reset", "turns", len(contents))
	return nil
}

// UploadFile uploads path and polls until processing finishes
func (g *Gemini) UploadFile(ctx context.Context, path, mimeType, displayName string) (*llm.FileHandle, error) {
	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	g.logger.Debug("gemini upload started", "name", file.Name, "state", file.State)

	for file.State == genai.FileStateProcessing {
		timer := time.NewTimer(g.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		file, err = g.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, wrapError(err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("%s: %w", displayName, llm.ErrProcessingFailed)
	}

	return &llm.FileHandle{
		Name:        file.Name,
		DisplayName: displayName,
		MIMEType:    file.MIMEType,
		URI:         file.URI,
		State:       llm.FileState(file.State),
	}, nil
}

// SearchYouTube asks the model, grounded on web search, for matching videos
func (g *Gemini) SearchYouTube(ctx context.Context, query string) ([]llm.YouTubeVideo, error) {
	contents := []*genai.Content{genai.NewContentFromText(fmt.Sprintf(youtubeSearchPrompt, query), genai.RoleUser)}
	// search grounding and a JSON response schema cannot be combined, so
	// the array comes back as text
	config := generateConfig(&llm.Request{UseSearch: true})
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	return llm.ParseVideoResults(resp.Text())
}

func groundingSources(resp *genai.GenerateContentResponse) []chat.GroundingSource {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	seen := make(map[string]bool)
	var sources []chat.GroundingSource
	for _, c := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if c == nil || c.Web == nil || c.Web.URI == "" || seen[c.Web.URI] {
			continue
		}
		seen[c.Web.URI] = true
		title := c.Web.Title
		if title == "" {
			title = c.Web.URI
		}
		sources = append(sources, chat.GroundingSource{URI: c.Web.URI, Title: title})
	}
	return sources
}

// wrapError attaches the HTTP status of API errors so the dispatcher can
// classify them
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewRetryableError(err, apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.NewRetryableError(err, apiErrPtr.Code)
	}
	return err
}

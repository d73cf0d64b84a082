package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrHistoryFormat is returned when an import is not a JSON array
var ErrHistoryFormat = errors.New("invalid history file: expected a JSON array of messages")

type historyFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"type"`
}

type historyEntry struct {
	Role      Role              `json:"role"`
	Text      string            `json:"text"`
	Grounding []GroundingSource `json:"grounding,omitempty"`
	File      *historyFile      `json:"file,omitempty"`
}

// ExportFileName returns the default name for a history export taken at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("gemini-chat-history-%s.json", t.Format("2006-01-02"))
}

// ExportHistory writes msgs as an indented JSON array
func ExportHistory(w io.Writer, msgs []Message) error {
	entries := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		entry := historyEntry{
			Role:      m.Role,
			Text:      m.Text,
			Grounding: m.GroundingSources,
		}
		if m.AttachedFile != nil {
			entry.File = &historyFile{Name: m.AttachedFile.Name, MIMEType: m.AttachedFile.MIMEType}
		}
		entries = append(entries, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return nil
}

// ImportHistory reads a history export. Anything other than a JSON array is an
// error; individual elements that do not look like a message are dropped.
func ImportHistory(r io.Reader) ([]Message, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryFormat, err)
	}
	if raw == nil {
		return nil, ErrHistoryFormat
	}

	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		msg, ok := decodeEntry(item)
		if ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func decodeEntry(item json.RawMessage) (Message, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return Message{}, false
	}

	var role Role
	if err := json.Unmarshal(fields["role"], &role); err != nil || !role.Valid() {
		return Message{}, false
	}
	var text string
	rawText, ok := fields["text"]
	if !ok || json.Unmarshal(rawText, &text) != nil {
		return Message{}, false
	}

	msg := NewMessage(role, text)

	if g, ok := fields["grounding"]; ok {
		var sources []GroundingSource
		if json.Unmarshal(g, &sources) == nil {
			msg.GroundingSources = sources
		}
	}
	if f, ok := fields["file"]; ok {
		var file historyFile
		if json.Unmarshal(f, &file) == nil && file.Name != "" {
			msg.AttachedFile = &FileRef{Name: file.Name, MIMEType: file.MIMEType}
		}
	}
	return msg, true
}

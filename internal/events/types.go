package events

import "time"

// EventType names what changed
type EventType string

const (
	// Conversation events
	ConversationAppended EventType = "conversation.appended"
	ConversationRemoved  EventType = "conversation.removed"
	ConversationReplaced EventType = "conversation.replaced"

	// Input events
	InputChanged       EventType = "input.changed"
	AttachmentChanged  EventType = "input.attachment.changed"
	ContextFileChanged EventType = "input.context.changed"
	CaptureChanged     EventType = "input.capture.changed"
	VideoChanged       EventType = "input.video.changed"

	// Session status events
	StatusChanged     EventType = "status.changed"
	ErrorChanged      EventType = "status.error.changed"
	ProcessingChanged EventType = "status.processing.changed"

	// Media events
	MicChanged      EventType = "media.mic.changed"
	SharingChanged  EventType = "media.sharing.changed"
	SpeakingChanged EventType = "media.speaking.changed"
	PlaybackChanged EventType = "media.playback.changed"
)

// Event is one published change
type Event[T any] struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Payload   T         `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// EventFilter reports whether an event type should be delivered
type EventFilter func(EventType) bool

// OfType accepts only the listed event types
func OfType(types ...EventType) EventFilter {
	return func(t EventType) bool {
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
}

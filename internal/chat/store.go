package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrTxDone is returned when a transaction is committed or rolled back twice
var ErrTxDone = errors.New("chat: transaction already finished")

// ChangeKind says how the log changed
type ChangeKind int

const (
	ChangeAppended ChangeKind = iota
	ChangeRemoved
	ChangeReplaced
)

// Store is the ordered conversation log. Insertion order is display order.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	onChange func(ChangeKind, Message)
}

// NewStore creates an empty conversation log
func NewStore() *Store {
	return &Store{}
}

// OnChange registers the hook called after every mutation. The hook runs
// without the store lock held.
func (s *Store) OnChange(fn func(ChangeKind, Message)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify(kind ChangeKind, msg Message) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(kind, msg)
	}
}

// Append adds msg to the end of the log
func (s *Store) Append(msg Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify(ChangeAppended, msg)
}

// RemoveLast drops the newest message
func (s *Store) RemoveLast() (Message, bool) {
	s.mu.Lock()
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return Message{}, false
	}
	last := s.messages[len(s.messages)-1]
	s.messages = s.messages[:len(s.messages)-1]
	s.mu.Unlock()
	s.notify(ChangeRemoved, last)
	return last, true
}

// ReplaceAll swaps the whole log for msgs, silently dropping entries with an
// unknown role. It returns how many messages were kept.
func (s *Store) ReplaceAll(msgs []Message) int {
	kept := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Role.Valid() {
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		kept = append(kept, m)
	}

	s.mu.Lock()
	s.messages = kept
	s.mu.Unlock()
	s.notify(ChangeReplaced, Message{})
	return len(kept)
}

// Messages returns a copy of the log
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the newest message with the given role
func (s *Store) Last(role Role) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == role {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

func (s *Store) removeByID(id string) (Message, bool) {
	s.mu.Lock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID != id {
			continue
		}
		removed := s.messages[i]
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		s.mu.Unlock()
		s.notify(ChangeRemoved, removed)
		return removed, true
	}
	s.mu.Unlock()
	return Message{}, false
}

// Tx is an optimistic user turn awaiting the backend's verdict
type Tx struct {
	store   *Store
	pending Message
	mu      sync.Mutex
	done    bool
}

// Begin appends msg tentatively and returns the transaction that settles it
func (s *Store) Begin(msg Message) *Tx {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.Append(msg)
	return &Tx{store: s, pending: msg}
}

// Pending returns the optimistic entry
func (tx *Tx) Pending() Message {
	return tx.pending
}

// Commit keeps the optimistic entry and appends the model's reply
func (tx *Tx) Commit(reply Message) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.store.Append(reply)
	return nil
}

// Rollback removes exactly the optimistic entry
func (tx *Tx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.store.removeByID(tx.pending.ID)
	return nil
}

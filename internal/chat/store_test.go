package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("append preserves order", func(t *testing.T) {
		s := NewStore()
		s.Append(NewMessage(RoleUser, "one"))
		s.Append(NewMessage(RoleModel, "two"))

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "one", msgs[0].Text)
		assert.Equal(t, "two", msgs[1].Text)
	})

	t.Run("remove last", func(t *testing.T) {
		s := NewStore()
		_, ok := s.RemoveLast()
		assert.False(t, ok)

		s.Append(NewMessage(RoleUser, "one"))
		s.Append(NewMessage(RoleModel, "two"))
		last, ok := s.RemoveLast()
		require.True(t, ok)
		assert.Equal(t, "two", last.Text)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("replace all drops unknown roles", func(t *testing.T) {
		s := NewStore()
		s.Append(NewMessage(RoleUser, "old"))

		kept := s.ReplaceAll([]Message{
			{Role: RoleUser, Text: "hi"},
			{Role: Role("other"), Text: "nope"},
			{Role: RoleModel, Text: "hello"},
		})
		assert.Equal(t, 2, kept)

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "hi", msgs[0].Text)
		assert.NotEmpty(t, msgs[0].ID)
	})

	t.Run("messages returns a copy", func(t *testing.T) {
		s := NewStore()
		s.Append(NewMessage(RoleUser, "one"))
		msgs := s.Messages()
		msgs[0].Text = "changed"
		assert.Equal(t, "one", s.Messages()[0].Text)
	})

	t.Run("on change hook", func(t *testing.T) {
		s := NewStore()
		var kinds []ChangeKind
		s.OnChange(func(k ChangeKind, _ Message) { kinds = append(kinds, k) })

		s.Append(NewMessage(RoleUser, "a"))
		s.RemoveLast()
		s.ReplaceAll(nil)
		assert.Equal(t, []ChangeKind{ChangeAppended, ChangeRemoved, ChangeReplaced}, kinds)
	})

	t.Run("last by role", func(t *testing.T) {
		s := NewStore()
		s.Append(NewMessage(RoleUser, "q1"))
		s.Append(NewMessage(RoleModel, "a1"))
		s.Append(NewMessage(RoleUser, "q2"))

		m, ok := s.Last(RoleModel)
		require.True(t, ok)
		assert.Equal(t, "a1", m.Text)
	})
}

func TestTx(t *testing.T) {
	t.Run("commit appends reply", func(t *testing.T) {
		s := NewStore()
		tx := s.Begin(NewMessage(RoleUser, "question"))
		assert.Equal(t, 1, s.Len())

		require.NoError(t, tx.Commit(NewMessage(RoleModel, "answer")))
		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, RoleModel, msgs[1].Role)
	})

	t.Run("rollback removes only the optimistic entry", func(t *testing.T) {
		s := NewStore()
		s.Append(NewMessage(RoleUser, "earlier"))
		s.Append(NewMessage(RoleModel, "reply"))

		tx := s.Begin(NewMessage(RoleUser, "failing"))
		require.NoError(t, tx.Rollback())

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "reply", msgs[1].Text)
	})

	t.Run("finished transaction rejects further use", func(t *testing.T) {
		s := NewStore()
		tx := s.Begin(NewMessage(RoleUser, "q"))
		require.NoError(t, tx.Rollback())
		assert.ErrorIs(t, tx.Rollback(), ErrTxDone)
		assert.ErrorIs(t, tx.Commit(NewMessage(RoleModel, "a")), ErrTxDone)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("log holds only confirmed pairs", func(t *testing.T) {
		s := NewStore()
		outcomes := []bool{true, false, true, false, false, true}
		successes := 0
		for _, ok := range outcomes {
			tx := s.Begin(NewMessage(RoleUser, "q"))
			if ok {
				require.NoError(t, tx.Commit(NewMessage(RoleModel, "a")))
				successes++
			} else {
				require.NoError(t, tx.Rollback())
			}
		}
		assert.Equal(t, 2*successes, s.Len())
	})
}

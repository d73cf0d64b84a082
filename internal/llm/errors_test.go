package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	t.Run("token limit", func(t *testing.T) {
		err := &DispatchError{Kind: KindTokenLimit, Attempts: 1, Err: errors.New("The input token count exceeds the maximum number of tokens")}
		assert.Contains(t, UserMessage(err), "token limit")
	})

	t.Run("invalid credential from raw error", func(t *testing.T) {
		assert.Contains(t, UserMessage(errors.New("API key not valid. Please pass a valid API key.")), "API key")
	})

	t.Run("other errors verbatim", func(t *testing.T) {
		err := &DispatchError{Kind: KindOther, Attempts: 1, Err: errors.New("safety block")}
		assert.Equal(t, "safety block", UserMessage(err))
	})

	t.Run("exhausted errors keep their framing", func(t *testing.T) {
		err := &DispatchError{Kind: KindServerErrorExhausted, Attempts: 3, Err: errors.New("503")}
		assert.Equal(t, "server error after 3 attempts: 503", UserMessage(err))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, UserMessage(nil))
	})
}

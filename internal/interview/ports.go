package interview

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// ErrCompletion marks failures of the chat-completion upstream.
var ErrCompletion = errors.New("chat completion failed")

type ChatClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Tokenizer counts prompt tokens for history trimming.
type Tokenizer interface {
	Count(text string) int
}

package ai

import "errors"

var ErrEmptyCompletion = errors.New("completion has no choices")

// Config describes the OpenAI account used for both Whisper and chat.
type Config struct {
	APIKey  string
	OrgID   string
	BaseURL string // empty means the public API

	ChatModel          string
	TranscriptionModel string
}

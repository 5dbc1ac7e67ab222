package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/interview_voice/internal/speech"
)

type OpenAIClient struct {
	client             *openai.Client
	chatModel          string
	transcriptionModel string
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.OrgID = cfg.OrgID
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT3Dot5Turbo
	}
	transcriptionModel := cfg.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = openai.Whisper1
	}

	return &OpenAIClient{
		client:             openai.NewClientWithConfig(oc),
		chatModel:          chatModel,
		transcriptionModel: transcriptionModel,
	}
}

// ChatModel is the model name used for completions.
func (c *OpenAIClient) ChatModel() string { return c.chatModel }

func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe streams an already opened audio file to Whisper.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio *os.File) (speech.Transcript, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		Reader:   audio,
		FilePath: filepath.Base(audio.Name()),
	})
	if err != nil {
		return speech.Transcript{}, fmt.Errorf("creating transcription: %w", err)
	}

	return speech.Transcript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

var _ speech.STTClient = (*OpenAIClient)(nil)

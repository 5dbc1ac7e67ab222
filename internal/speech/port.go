package speech

import (
	"context"
	"errors"
	"os"
)

var ErrSynthesisStatus = errors.New("tts returned non-200 status")

type Transcript struct {
	Text     string
	Language string
	Duration float64
}

type STTClient interface {
	Transcribe(ctx context.Context, audio *os.File) (Transcript, error) // voice -> text
}

type TTSClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error) // text -> mpeg bytes
}

// Result is the outcome of a synthesis attempt. Audio is nil whenever Err is set.
type Result struct {
	Audio []byte
	Err   error
}

func (r Result) OK() bool {
	return r.Err == nil
}

package speech

import (
	"context"
	"os"

	"github.com/Vovarama1992/go-utils/logger"
)

// Service joins STT and TTS behind one dependency for the HTTP layer.
type Service struct {
	stt STTClient
	tts TTSClient
	log *logger.ZapLogger
}

func NewService(stt STTClient, tts TTSClient, log *logger.ZapLogger) *Service {
	return &Service{
		stt: stt,
		tts: tts,
		log: log,
	}
}

func (s *Service) Transcribe(ctx context.Context, audio *os.File) (Transcript, error) {
	return s.stt.Transcribe(ctx, audio)
}

// Synthesize never fails outright; the caller inspects the Result and decides how to degrade.
func (s *Service) Synthesize(ctx context.Context, text string) Result {
	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "text-to-speech failed", Service: "speech", Error: err})
		return Result{Err: err}
	}
	return Result{Audio: audio}
}

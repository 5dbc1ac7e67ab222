package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Vovarama1992/interview_voice/internal/ai"
	"github.com/Vovarama1992/interview_voice/internal/config"
	"github.com/Vovarama1992/interview_voice/internal/delivery"
	"github.com/Vovarama1992/interview_voice/internal/error_notificator"
	"github.com/Vovarama1992/interview_voice/internal/history"
	"github.com/Vovarama1992/interview_voice/internal/ingest"
	"github.com/Vovarama1992/interview_voice/internal/interview"
	"github.com/Vovarama1992/interview_voice/internal/metrics"
	"github.com/Vovarama1992/interview_voice/internal/speech"
)

const serviceName = "interview_voice"

func main() {

	// =========================================================================
	// ENV
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	store, err := history.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init history store: %v", err)
	}

	var archiver ingest.Archiver
	if cfg.S3.Enabled() {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		archiver, err = ingest.NewS3Archiver(initCtx, ingest.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
		})
		cancel()
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
	}

	sink, err := ingest.NewDiskSink(cfg.UploadDir, archiver, zl)
	if err != nil {
		log.Fatalf("failed to init upload sink: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	errInfra := error_notificator.NewNoop()
	if cfg.TelegramEnabled() {
		tg, err := error_notificator.NewTelegramInfra(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
		if err != nil {
			log.Fatalf("failed to init telegram notifier: %v", err)
		}
		errInfra = tg
	}
	errService := error_notificator.NewService(errInfra, zl)

	// =========================================================================
	// CLIENTS (OPENAI / TTS)
	// =========================================================================

	openAIClient := ai.NewOpenAIClient(ai.Config{
		APIKey:  cfg.OpenAIKey,
		OrgID:   cfg.OpenAIOrg,
		BaseURL: cfg.OpenAIBaseURL,
	})
	ttsClient := speech.NewElevenLabsClient(speech.ElevenLabsConfig{
		APIKey:  cfg.ElevenLabsKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		VoiceID: cfg.ElevenLabsVoiceID,
	})

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	speechService := speech.NewService(
		openAIClient, // Whisper
		ttsClient,    // ElevenLabs
		zl,
	)

	var opts []interview.Option
	if cfg.MaxPromptTokens > 0 {
		tok, err := ai.NewTokenizer(openAIClient.ChatModel())
		if err != nil {
			zl.Log(logger.LogEntry{Level: "warn", Message: "tokenizer unavailable, prompts are sent untrimmed", Service: serviceName, Error: err})
		} else {
			opts = append(opts, interview.WithTokenBudget(tok, cfg.MaxPromptTokens))
		}
	}
	interviewService := interview.NewService(store, openAIClient, zl, opts...)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	handler := delivery.NewHandler(
		interviewService,
		speechService,
		sink,
		errService,
		m,
		zl,
		delivery.Options{
			DegradeOnTTSFailure: cfg.TTSFailureMode == config.TTSFailureDegrade,
			UpstreamTimeout:     cfg.UpstreamTimeout,
		},
	)

	r := delivery.NewRouter(delivery.RouterConfig{
		AllowedOrigins: cfg.CORSOrigins,
		TalkRateLimit:  cfg.TalkRateLimit,
		Metrics:        m,
		Gatherer:       reg,
	}, handler)

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Log(logger.LogEntry{Level: "error", Message: "graceful shutdown failed", Service: serviceName, Error: err})
		}
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + srv.Addr,
		Service: serviceName,
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

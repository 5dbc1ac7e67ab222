package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Vovarama1992/interview_voice/internal/error_notificator"
	"github.com/Vovarama1992/interview_voice/internal/history"
	"github.com/Vovarama1992/interview_voice/internal/ingest"
	"github.com/Vovarama1992/interview_voice/internal/interview"
	"github.com/Vovarama1992/interview_voice/internal/metrics"
	"github.com/Vovarama1992/interview_voice/internal/speech"
)

type InterviewService interface {
	StartSession(ctx context.Context, topic string) (string, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	Reply(ctx context.Context, sessionID, topic, userText string) (string, error)
	History(ctx context.Context, sessionID string) ([]history.Message, error)
	Clear(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) error
}

type SpeechService interface {
	Transcribe(ctx context.Context, audio *os.File) (speech.Transcript, error)
	Synthesize(ctx context.Context, text string) speech.Result
}

type Options struct {
	// DegradeOnTTSFailure answers 200 with an empty body when synthesis fails, otherwise 502.
	DegradeOnTTSFailure bool
	// UpstreamTimeout bounds each upstream stage; zero means no bound.
	UpstreamTimeout time.Duration
}

type Handler struct {
	interview InterviewService
	speech    SpeechService
	sink      ingest.Sink
	notifier  error_notificator.Notificator
	metrics   *metrics.Metrics
	log       *logger.ZapLogger
	opts      Options
}

func NewHandler(
	interviewSvc InterviewService,
	speechSvc SpeechService,
	sink ingest.Sink,
	notifier error_notificator.Notificator,
	m *metrics.Metrics,
	log *logger.ZapLogger,
	opts Options,
) *Handler {
	return &Handler{
		interview: interviewSvc,
		speech:    speechSvc,
		sink:      sink,
		notifier:  notifier,
		metrics:   m,
		log:       log,
		opts:      opts,
	}
}

// GET /
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

// POST /talk?interview_topic=...&session_id=...
func (h *Handler) Talk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := RequestIDFrom(ctx)

	topic := r.URL.Query().Get("interview_topic")
	if topic == "" {
		http.Error(w, "missing interview_topic", http.StatusBadRequest)
		return
	}

	sessionID, ok := h.resolveSession(w, r, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "missing file req=" + reqID, Service: "delivery", Error: err})
		http.Error(w, "missing file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	start := time.Now()
	audio, err := h.sink.Save(ctx, header.Filename, file)
	h.metrics.ObserveStage(metrics.StageIngest, start, err)
	if err != nil {
		if errors.Is(err, ingest.ErrNoFile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.fail(w, r, "failed to save upload", err, http.StatusInternalServerError)
		return
	}
	defer audio.Close()

	stageCtx, cancel := h.stageContext(ctx)
	start = time.Now()
	transcript, err := h.speech.Transcribe(stageCtx, audio)
	cancel()
	h.metrics.ObserveStage(metrics.StageTranscribe, start, err)
	if err != nil {
		h.fail(w, r, "transcription failed", err, http.StatusBadGateway)
		return
	}

	stageCtx, cancel = h.stageContext(ctx)
	start = time.Now()
	reply, err := h.interview.Reply(stageCtx, sessionID, topic, transcript.Text)
	cancel()
	h.metrics.ObserveStage(metrics.StageChat, start, err)
	if err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			http.Error(w, history.ErrSessionNotFound.Error(), http.StatusNotFound)
			return
		}
		code := http.StatusInternalServerError
		if errors.Is(err, interview.ErrCompletion) {
			code = http.StatusBadGateway
		}
		h.fail(w, r, "chat turn failed", err, code)
		return
	}

	stageCtx, cancel = h.stageContext(ctx)
	start = time.Now()
	result := h.speech.Synthesize(stageCtx, reply)
	cancel()
	h.metrics.ObserveStage(metrics.StageSynthesize, start, result.Err)
	if !result.OK() {
		_ = h.notifier.Notify(ctx, result.Err, fmt.Sprintf("stage=synthesize req=%s session=%s", reqID, sessionID))
		if !h.opts.DegradeOnTTSFailure {
			http.Error(w, "speech synthesis failed", http.StatusBadGateway)
			return
		}
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Audio)
}

// GET /clear?session_id=...
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.resolveSession(w, r, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}

	if err := h.interview.Clear(r.Context(), sessionID); err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			http.Error(w, history.ErrSessionNotFound.Error(), http.StatusNotFound)
			return
		}
		h.fail(w, r, "failed to clear history", err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history has been cleared"})
}

// POST /sessions?interview_topic=...
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("interview_topic")
	if topic == "" {
		http.Error(w, "missing interview_topic", http.StatusBadRequest)
		return
	}

	id, err := h.interview.StartSession(r.Context(), topic)
	if err != nil {
		h.fail(w, r, "failed to start session", err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// GET /sessions/{session_id}/messages
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.resolveSession(w, r, chi.URLParam(r, "session_id"))
	if !ok {
		return
	}

	msgs, err := h.interview.History(r.Context(), sessionID)
	if err != nil {
		h.fail(w, r, "failed to load history", err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// DELETE /sessions/{session_id}
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.resolveSession(w, r, chi.URLParam(r, "session_id"))
	if !ok {
		return
	}

	if err := h.interview.EndSession(r.Context(), sessionID); err != nil {
		h.fail(w, r, "failed to end session", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveSession maps an empty id to the shared session and 404s unknown explicit ids.
func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request, id string) (string, bool) {
	if id == "" {
		return history.DefaultSession, true
	}

	exists, err := h.interview.SessionExists(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to look up session", err, http.StatusInternalServerError)
		return "", false
	}
	if !exists {
		http.Error(w, history.ErrSessionNotFound.Error(), http.StatusNotFound)
		return "", false
	}
	return id, true
}

func (h *Handler) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.opts.UpstreamTimeout > 0 {
		return context.WithTimeout(ctx, h.opts.UpstreamTimeout)
	}
	return context.WithCancel(ctx)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, code int) {
	details := fmt.Sprintf("%s %s req=%s", r.Method, r.URL.Path, RequestIDFrom(r.Context()))

	h.log.Log(logger.LogEntry{Level: "error", Message: msg + " " + details, Service: "delivery", Error: err})
	if code >= http.StatusInternalServerError {
		_ = h.notifier.Notify(r.Context(), err, msg+" "+details)
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

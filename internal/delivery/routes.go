package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vovarama1992/interview_voice/internal/metrics"
)

type RouterConfig struct {
	AllowedOrigins []string
	// TalkRateLimit is requests per minute per IP on /talk; zero disables it.
	TalkRateLimit int
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
}

func NewRouter(cfg RouterConfig, h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(RequestID, CountRequests(cfg.Metrics))

	RegisterRoutes(r, h, cfg.TalkRateLimit)

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	return r
}

func RegisterRoutes(r chi.Router, h *Handler, talkRateLimit int) {
	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		pr.Get("/", h.Root)
		pr.Get("/clear", h.Clear)

		talk := pr.With()
		if talkRateLimit > 0 {
			talk = pr.With(httprate.LimitByIP(talkRateLimit, time.Minute))
		}
		talk.Post("/talk", h.Talk)

		// --- sessions ---
		pr.Post("/sessions", h.StartSession)
		pr.Get("/sessions/{session_id}/messages", h.Messages)
		pr.Delete("/sessions/{session_id}", h.EndSession)
	})
}

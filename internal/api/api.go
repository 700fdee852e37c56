// Package api exposes activities, child profiles and spelling history over
// HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/logging"
	"github.com/abhisek/studybuddy/internal/metrics"
	"github.com/abhisek/studybuddy/internal/spelling"
)

// Activities is the activity lifecycle used by the handlers.
type Activities interface {
	GetOrCreateToday(ctx context.Context, l activity.Learner) (*activity.Activity, error)
	MarkViewed(ctx context.Context, activityID string) error
	Grade(ctx context.Context, activityID string, mathCorrect, readingCorrect int) (*activity.Activity, error)
	ListCompleted(ctx context.Context, childID string) ([]activity.Activity, error)
}

// Families is the parent and child record service used by the handlers.
type Families interface {
	EnsureParent(ctx context.Context, in family.NewParent) (*family.Parent, error)
	GetParent(ctx context.Context, parentID string) (*family.Parent, error)
	Child(ctx context.Context, parentID, childID string) (*family.Child, error)
	AddChild(ctx context.Context, parentID string, in family.NewChild) (*family.Child, error)
	SpellingProgress(ctx context.Context, parentID, childID string) ([]spelling.Result, error)
}

// Deps are the services behind the API.
type Deps struct {
	Activities Activities
	Families   Families
	Metrics    *metrics.Metrics

	// Ping reports storage health for /health. Optional.
	Ping   func(ctx context.Context) error
	Logger *slog.Logger
}

type handler struct {
	Deps
	validate *validator.Validate
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{Deps: d, validate: validator.New(validator.WithRequiredStructEnabled())}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", h.health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/parents/{parentID}", func(r chi.Router) {
			r.Put("/", h.ensureParent)
			r.Get("/", h.getParent)
			r.Post("/children", h.addChild)
			r.Get("/children/{childID}/activities/today", h.todayActivity)
			r.Get("/children/{childID}/spelling", h.spellingProgress)
		})
		r.Get("/children/{childID}/activities/completed", h.completedActivities)
		r.Post("/activities/{activityID}/viewed", h.markViewed)
		r.Post("/activities/{activityID}/grade", h.grade)
	})
	return r
}

// requestLogger attaches a per-request logger and logs completion.
func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := h.Logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), log)))

		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

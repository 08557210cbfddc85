package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withRequestLogging(handler.logger))
	r.Use(withCORS)
	r.Use(withJSONContentType)

	r.Get("/healthz", handler.healthz)
	r.Get("/docs", handler.swaggerUI)
	r.Get("/docs/", handler.swaggerUI)
	r.Get("/docs/openapi.json", handler.swaggerSpec)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/state", func(r chi.Router) {
			r.Get("/", handler.getState)
			r.Put("/name", handler.setName)
			r.Patch("/profile", handler.patchProfile)
			r.Post("/profile/complete", handler.completeProfile)
			r.Post("/onboarding/complete", handler.completeOnboarding)
			r.Put("/welcome", handler.setWelcome)
			r.Put("/notifications", handler.setNotifications)
			r.Post("/streak/increment", handler.incrementStreak)
			r.Post("/streak/reset", handler.resetStreak)
			r.Put("/premium", handler.setPremium)
			r.Post("/quota/reset", handler.resetQuota)
		})

		r.Post("/analysis/beauty", handler.analyzeBeauty)
		r.Get("/analysis/beauty", handler.beautyHistory)
		r.Post("/analysis/outfit", handler.analyzeOutfit)
		r.Get("/analysis/outfit", handler.outfitHistory)
		r.Get("/stats", handler.stats)

		r.Get("/challenges", handler.listChallenges)
		r.Post("/challenges/{id}/join", handler.joinChallenge)
		r.Post("/challenges/{id}/tasks/{taskID}/complete", handler.completeTask)
		r.Get("/achievements", handler.achievements)
	})

	return r
}

func withJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

func withRequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", rec.status,
				"elapsed", time.Since(start).Truncate(time.Millisecond),
				"remote", r.RemoteAddr,
			)
		})
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"glowcheck/internal/analysis"
	"glowcheck/internal/model"
	"glowcheck/internal/service"
	"glowcheck/internal/state"
)

const badBodyMessage = "request body is not valid JSON"

type Handler struct {
	svc    *service.Service
	state  *state.Store
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, state: svc.State(), logger: logger}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) setName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, "setName", &req) {
		return
	}
	h.state.SetName(req.Name)
	h.writeState(w)
}

func (h *Handler) patchProfile(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfilePatch
	if !h.decode(w, r, "patchProfile", &patch) {
		return
	}
	h.state.SetProfile(patch)
	h.writeState(w)
}

func (h *Handler) completeProfile(w http.ResponseWriter, _ *http.Request) {
	h.state.CompleteProfile()
	h.writeState(w)
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, _ *http.Request) {
	h.state.CompleteOnboarding()
	h.writeState(w)
}

func (h *Handler) setWelcome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seen bool `json:"seen"`
	}
	if !h.decode(w, r, "setWelcome", &req) {
		return
	}
	h.state.SetHasSeenWelcome(req.Seen)
	h.writeState(w)
}

func (h *Handler) setNotifications(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !h.decode(w, r, "setNotifications", &req) {
		return
	}
	h.state.SetNotificationsEnabled(req.Enabled)
	h.writeState(w)
}

func (h *Handler) incrementStreak(w http.ResponseWriter, _ *http.Request) {
	h.state.IncrementStreak()
	h.writeState(w)
}

func (h *Handler) resetStreak(w http.ResponseWriter, _ *http.Request) {
	h.state.ResetStreak()
	h.writeState(w)
}

func (h *Handler) setPremium(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status bool                   `json:"status"`
		Tier   model.SubscriptionTier `json:"tier"`
	}
	if !h.decode(w, r, "setPremium", &req) {
		return
	}
	switch req.Tier {
	case model.TierFree:
		if req.Status {
			writeError(w, http.StatusBadRequest, "tier free cannot be combined with status true")
			return
		}
	case model.TierPro, model.TierGoddess:
	case "":
		req.Tier = model.TierFree
		if req.Status {
			req.Tier = model.TierPro
		}
	default:
		writeError(w, http.StatusBadRequest, "tier must be one of free, pro, goddess")
		return
	}
	h.state.SetPremium(req.Status, req.Tier)
	h.writeState(w)
}

func (h *Handler) resetQuota(w http.ResponseWriter, _ *http.Request) {
	h.state.ResetMonthlyAnalysisCount()
	h.writeState(w)
}

func (h *Handler) analyzeBeauty(w http.ResponseWriter, r *http.Request) {
	var req service.BeautyRequest
	if !h.decode(w, r, "analyzeBeauty", &req) {
		return
	}
	resp, err := h.svc.AnalyzeBeauty(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "analyzeBeauty", err,
			"image_url", strings.TrimSpace(req.ImageURL) != "",
			"image_base64", strings.TrimSpace(req.ImageBase64) != "",
		)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) analyzeOutfit(w http.ResponseWriter, r *http.Request) {
	var req service.OutfitRequest
	if !h.decode(w, r, "analyzeOutfit", &req) {
		return
	}
	resp, err := h.svc.AnalyzeOutfit(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "analyzeOutfit", err, "event", req.Event)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) beautyHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"analyses": h.svc.BeautyHistory()})
}

func (h *Handler) outfitHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"analyses": h.svc.OutfitHistory()})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.svc.Stats()
	if err != nil {
		h.writeServiceError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) listChallenges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"challenges": h.svc.ListChallenges()})
}

func (h *Handler) joinChallenge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	challenge, err := h.svc.JoinChallenge(id)
	if err != nil {
		h.writeServiceError(w, "joinChallenge", err, "challenge", id)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "taskID")
	result, err := h.svc.CompleteTask(id, taskID)
	if err != nil {
		h.writeServiceError(w, "completeTask", err, "challenge", id, "task", taskID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) achievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"achievements": h.svc.Achievements()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("decode error", "op", op, "error", err)
		writeError(w, http.StatusBadRequest, badBodyMessage)
		return false
	}
	return true
}

func (h *Handler) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error, attrs ...any) {
	status := statusFor(err)
	attrs = append(attrs, "op", op, "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Warn("request rejected", attrs...)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrImageRequired):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrImageEncode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAnalysisLimitReached):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrPremiumRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrChallengeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrChallengeCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

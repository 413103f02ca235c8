package handler

import (
	"net/http"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/projection"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/cinesocial/platform/internal/streak"
)

// StreakHandler handles streak activity, listing, and freeze endpoints.
type StreakHandler struct {
	tracker *streak.Tracker
	cache   projection.Store
	db      repository.DBTX
}

// NewStreakHandler creates a new StreakHandler.
func NewStreakHandler(tracker *streak.Tracker, cache projection.Store, db repository.DBTX) *StreakHandler {
	return &StreakHandler{tracker: tracker, cache: cache, db: db}
}

// RecordActivity handles POST /streaks/activity.
func (h *StreakHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input struct {
		Type domain.StreakType `json:"type"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.tracker.RecordActivity(r.Context(), userID, input.Type, time.Now())
	if err != nil {
		RespondError(w, err)
		return
	}

	if len(result.MilestonesReached) > 0 {
		// Milestones credit coins; drop the stale balance.
		_ = projection.InvalidateBalance(r.Context(), h.cache, userID)
	}

	RespondJSON(w, http.StatusOK, result)
}

// GetMyStreaks handles GET /streaks/me.
func (h *StreakHandler) GetMyStreaks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	streaks, err := h.tracker.GetUserStreaks(r.Context(), h.db, userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("list streaks", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"streaks": streaks})
}

// UseFreeze handles POST /streaks/freeze.
func (h *StreakHandler) UseFreeze(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input struct {
		Type domain.StreakType `json:"type"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	s, err := h.tracker.UseFreeze(r.Context(), userID, input.Type, time.Now())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, s)
}

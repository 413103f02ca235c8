package handler

import (
	"net/http"

	"github.com/cinesocial/platform/internal/achievement"
	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/guard"
	"github.com/cinesocial/platform/internal/projection"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AchievementHandler handles achievement progress and listing endpoints.
type AchievementHandler struct {
	tracker *achievement.Tracker
	limiter *guard.RateLimiter
	idem    *guard.IdempotencyGuard
	cache   projection.Store
	db      repository.DBTX
}

// NewAchievementHandler creates a new AchievementHandler.
func NewAchievementHandler(tracker *achievement.Tracker, limiter *guard.RateLimiter, idem *guard.IdempotencyGuard, cache projection.Store, db repository.DBTX) *AchievementHandler {
	return &AchievementHandler{tracker: tracker, limiter: limiter, idem: idem, cache: cache, db: db}
}

// RecordProgress handles POST /achievements/progress.
func (h *AchievementHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if result := h.limiter.Check(r.Context(), "progress:"+userID.String()); !result.Allowed {
		RespondError(w, domain.ErrRateLimited(result.Reason))
		return
	}

	var input struct {
		BadgeID uuid.UUID `json:"badge_id"`
		Value   int       `json:"value"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if input.BadgeID == uuid.Nil {
		RespondError(w, domain.ErrValidation("badge_id is required"))
		return
	}

	var idemKey string
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		idemKey = "progress:" + userID.String() + ":" + key
		if result := h.idem.Check(r.Context(), idemKey); !result.Allowed {
			RespondError(w, domain.ErrConflict(result.Reason))
			return
		}
	}

	result, err := h.tracker.RecordProgress(r.Context(), userID, input.BadgeID, input.Value)
	if err != nil {
		// Release the key so the caller can retry a failed write.
		if idemKey != "" {
			h.idem.Remove(idemKey)
		}
		RespondError(w, err)
		return
	}

	if result.Unlocked {
		// The unlock may have credited coins; drop the stale balance.
		_ = projection.InvalidateBalance(r.Context(), h.cache, userID)
	}

	RespondJSON(w, http.StatusOK, result)
}

// GetBadgeProgress handles GET /achievements/{badgeID}.
func (h *AchievementHandler) GetBadgeProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	badgeID, err := uuid.Parse(chi.URLParam(r, "badgeID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid badge id"))
		return
	}

	result, err := h.tracker.GetBadgeProgress(r.Context(), h.db, userID, badgeID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// GetMyAchievements handles GET /achievements/me.
func (h *AchievementHandler) GetMyAchievements(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.tracker.GetUserAchievements(r.Context(), h.db, userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("list achievements", err))
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

package handler

import (
	"net/http"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/engagement"
	"github.com/cinesocial/platform/internal/guard"
	"github.com/cinesocial/platform/internal/repository"
)

// EngagementHandler handles raw activity signal endpoints.
type EngagementHandler struct {
	service *engagement.Service
	limiter *guard.RateLimiter
	idem    *guard.IdempotencyGuard
	db      repository.DBTX
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(service *engagement.Service, limiter *guard.RateLimiter, idem *guard.IdempotencyGuard, db repository.DBTX) *EngagementHandler {
	return &EngagementHandler{service: service, limiter: limiter, idem: idem, db: db}
}

// RecordSignal handles POST /engagement/signal.
func (h *EngagementHandler) RecordSignal(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if result := h.limiter.Check(r.Context(), "signal:"+userID.String()); !result.Allowed {
		RespondError(w, domain.ErrRateLimited(result.Reason))
		return
	}

	var input struct {
		Type  domain.SignalType `json:"type"`
		Value int               `json:"value"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	var idemKey string
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		idemKey = "signal:" + userID.String() + ":" + key
		if result := h.idem.Check(r.Context(), idemKey); !result.Allowed {
			RespondError(w, domain.ErrConflict(result.Reason))
			return
		}
	}

	result, err := h.service.RecordSignal(r.Context(), userID, input.Type, input.Value, time.Now())
	if err != nil {
		if idemKey != "" {
			h.idem.Remove(idemKey)
		}
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// GetMyEngagement handles GET /engagement/me.
func (h *EngagementHandler) GetMyEngagement(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	day, err := h.service.GetToday(r.Context(), h.db, userID, time.Now())
	if err != nil {
		RespondError(w, domain.ErrInternal("get engagement", err))
		return
	}
	RespondJSON(w, http.StatusOK, day)
}

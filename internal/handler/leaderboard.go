package handler

import (
	"net/http"
	"strconv"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/leaderboard"
	"github.com/cinesocial/platform/internal/projection"
	"github.com/cinesocial/platform/internal/repository"
)

// LeaderboardHandler handles the ranked view endpoints.
type LeaderboardHandler struct {
	board *leaderboard.Board
	cache projection.Store
	db    repository.DBTX
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(board *leaderboard.Board, cache projection.Store, db repository.DBTX) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, cache: cache, db: db}
}

// GetLeaderboard handles GET /leaderboard.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	var filter domain.LeaderboardFilter
	if raw := r.URL.Query().Get("min_level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 1 {
			RespondError(w, domain.ErrValidation("min_level must be a positive integer"))
			return
		}
		filter.MinLevel = &level
	}

	// Only the unfiltered listing is cached; the key is (page, limit).
	if filter.MinLevel == nil {
		if cached, err := projection.GetLeaderboardPage(r.Context(), h.cache, page, limit); err == nil {
			RespondJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := h.board.GetRankedPage(r.Context(), h.db, page, limit, filter)
	if err != nil {
		RespondError(w, err)
		return
	}
	if filter.MinLevel == nil {
		_ = projection.UpdateLeaderboardPage(r.Context(), h.cache, result)
	}

	RespondJSON(w, http.StatusOK, result)
}

// GetMyEntry handles GET /leaderboard/me.
func (h *LeaderboardHandler) GetMyEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	entry, err := h.board.GetUserEntry(r.Context(), h.db, userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("get leaderboard entry", err))
		return
	}
	RespondJSON(w, http.StatusOK, entry)
}

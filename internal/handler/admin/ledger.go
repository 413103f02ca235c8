package admin

import (
	"net/http"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/handler"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// LedgerAdminHandler exposes ledger consistency checks to operators.
type LedgerAdminHandler struct {
	engine *ledger.Engine
	db     repository.DBTX
}

// NewLedgerAdminHandler creates a LedgerAdminHandler.
func NewLedgerAdminHandler(engine *ledger.Engine, db repository.DBTX) *LedgerAdminHandler {
	return &LedgerAdminHandler{engine: engine, db: db}
}

// AuditUser handles GET /admin/ledger/{userID}/audit.
func (h *LedgerAdminHandler) AuditUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	result, err := h.engine.AuditUser(r.Context(), h.db, userID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("audit ledger", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}

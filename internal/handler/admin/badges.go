package admin

import (
	"net/http"

	"github.com/cinesocial/platform/internal/catalog"
	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/handler"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BadgeAdminHandler handles admin badge catalog management.
type BadgeAdminHandler struct {
	catalog *catalog.Catalog
	db      repository.DBTX
}

// NewBadgeAdminHandler creates a new BadgeAdminHandler.
func NewBadgeAdminHandler(cat *catalog.Catalog, db repository.DBTX) *BadgeAdminHandler {
	return &BadgeAdminHandler{catalog: cat, db: db}
}

// ListBadges handles GET /admin/badges. Unlike the member listing, this
// includes secret and retired badges.
func (h *BadgeAdminHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.catalog.ListBadges(r.Context(), h.db, domain.BadgeFilter{})
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list badges", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

// CreateBadge handles POST /admin/badges.
func (h *BadgeAdminHandler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var input catalog.CreateBadgeParams
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	badge, err := h.catalog.CreateBadge(r.Context(), h.db, input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, badge)
}

// ToggleBadge handles PATCH /admin/badges/{id}/toggle.
func (h *BadgeAdminHandler) ToggleBadge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid badge id"))
		return
	}

	var input struct {
		Active bool `json:"active"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	badge, err := h.catalog.SetBadgeActive(r.Context(), h.db, id, input.Active)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, badge)
}

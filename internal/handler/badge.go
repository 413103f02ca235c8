package handler

import (
	"net/http"

	"github.com/cinesocial/platform/internal/catalog"
	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
)

// BadgeHandler handles the member-facing badge catalog.
type BadgeHandler struct {
	catalog *catalog.Catalog
	db      repository.DBTX
}

// NewBadgeHandler creates a new BadgeHandler.
func NewBadgeHandler(cat *catalog.Catalog, db repository.DBTX) *BadgeHandler {
	return &BadgeHandler{catalog: cat, db: db}
}

// ListBadges handles GET /badges. Secret and retired badges are withheld
// from members; admins use the admin listing.
func (h *BadgeHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	filter, err := badgeFilterFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	badges, err := h.catalog.ListVisibleBadges(r.Context(), h.db, filter)
	if err != nil {
		RespondError(w, domain.ErrInternal("list badges", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

// badgeFilterFromQuery parses ?category= and ?rarity=.
func badgeFilterFromQuery(r *http.Request) (domain.BadgeFilter, error) {
	var filter domain.BadgeFilter
	if c := r.URL.Query().Get("category"); c != "" {
		filter.Category = &c
	}
	if s := r.URL.Query().Get("rarity"); s != "" {
		rarity := domain.BadgeRarity(s)
		if _, ok := domain.RarityOrder[rarity]; !ok {
			return filter, domain.ErrValidation("invalid rarity: " + s)
		}
		filter.Rarity = &rarity
	}
	return filter, nil
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
)

// Catalog manages badge definitions. Definitions are admin-authored and
// read-heavy; progress and unlock state live with the achievement tracker,
// never here.
type Catalog struct {
	badges repository.BadgeRepository
	logger *slog.Logger
}

// NewCatalog creates a badge catalog service.
func NewCatalog(badges repository.BadgeRepository, logger *slog.Logger) *Catalog {
	return &Catalog{badges: badges, logger: logger}
}

// CreateBadgeParams carries a new badge definition.
type CreateBadgeParams struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Rarity      domain.BadgeRarity    `json:"rarity"`
	Criteria    domain.UnlockCriteria `json:"criteria"`
	Points      int64                 `json:"points"`
	IsSecret    bool                  `json:"is_secret"`
}

// CreateBadge validates and stores a new badge definition. New badges start
// active with an empty holder list.
func (c *Catalog) CreateBadge(ctx context.Context, db repository.DBTX, params CreateBadgeParams) (*domain.Badge, error) {
	now := time.Now()
	badge := &domain.Badge{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		Rarity:      params.Rarity,
		Criteria:    params.Criteria,
		Points:      params.Points,
		IsActive:    true,
		IsSecret:    params.IsSecret,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := badge.Validate(); err != nil {
		return nil, err
	}
	if err := c.badges.Create(ctx, db, badge); err != nil {
		return nil, fmt.Errorf("create badge: %w", err)
	}
	c.logger.Info("badge created",
		"badge_id", badge.ID, "name", badge.Name, "rarity", badge.Rarity, "points", badge.Points)
	return badge, nil
}

// GetBadge fetches one badge definition.
func (c *Catalog) GetBadge(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Badge, error) {
	badge, err := c.badges.FindByID(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("find badge: %w", err)
	}
	if badge == nil {
		return nil, domain.ErrNotFound("badge", id.String())
	}
	return badge, nil
}

// ListBadges returns badge definitions matching the filter, rarity ascending
// then points descending.
func (c *Catalog) ListBadges(ctx context.Context, db repository.DBTX, filter domain.BadgeFilter) ([]domain.Badge, error) {
	badges, err := c.badges.List(ctx, db, filter)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// ListVisibleBadges is the member-facing listing: active badges only, with
// secret badges withheld.
func (c *Catalog) ListVisibleBadges(ctx context.Context, db repository.DBTX, filter domain.BadgeFilter) ([]domain.Badge, error) {
	active := true
	filter.IsActive = &active
	badges, err := c.ListBadges(ctx, db, filter)
	if err != nil {
		return nil, err
	}
	visible := badges[:0]
	for _, b := range badges {
		if !b.IsSecret {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// SetBadgeActive toggles whether a badge accepts new progress. Existing
// holders keep the badge either way.
func (c *Catalog) SetBadgeActive(ctx context.Context, db repository.DBTX, id uuid.UUID, active bool) (*domain.Badge, error) {
	found, err := c.badges.SetActive(ctx, db, id, active)
	if err != nil {
		return nil, fmt.Errorf("set badge active: %w", err)
	}
	if !found {
		return nil, domain.ErrNotFound("badge", id.String())
	}
	c.logger.Info("badge toggled", "badge_id", id, "active", active)
	return c.GetBadge(ctx, db, id)
}

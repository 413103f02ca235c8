package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBadges struct {
	badges map[uuid.UUID]*domain.Badge
}

func newFakeBadges() *fakeBadges {
	return &fakeBadges{badges: make(map[uuid.UUID]*domain.Badge)}
}

func (f *fakeBadges) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Badge, error) {
	b, ok := f.badges[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBadges) List(_ context.Context, _ repository.DBTX, filter domain.BadgeFilter) ([]domain.Badge, error) {
	var out []domain.Badge
	for _, b := range f.badges {
		if filter.Category != nil && b.Category != *filter.Category {
			continue
		}
		if filter.Rarity != nil && b.Rarity != *filter.Rarity {
			continue
		}
		if filter.IsActive != nil && b.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if domain.RarityOrder[out[i].Rarity] != domain.RarityOrder[out[j].Rarity] {
			return domain.RarityOrder[out[i].Rarity] < domain.RarityOrder[out[j].Rarity]
		}
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Create mirrors the schema's unique constraint on badge names.
func (f *fakeBadges) Create(_ context.Context, _ repository.DBTX, badge *domain.Badge) error {
	for _, b := range f.badges {
		if b.Name == badge.Name {
			return domain.ErrConflict(fmt.Sprintf("badge name %q already exists", badge.Name))
		}
	}
	f.badges[badge.ID] = badge
	return nil
}

func (f *fakeBadges) SetActive(_ context.Context, _ repository.DBTX, id uuid.UUID, active bool) (bool, error) {
	b, ok := f.badges[id]
	if !ok {
		return false, nil
	}
	b.IsActive = active
	return true, nil
}

func (f *fakeBadges) AddHolder(_ context.Context, _ repository.DBTX, badgeID, userID uuid.UUID) (bool, error) {
	b := f.badges[badgeID]
	b.Holders = append(b.Holders, userID)
	b.HolderCount++
	return true, nil
}

func newCatalogEnv() (*Catalog, *fakeBadges) {
	badges := newFakeBadges()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalog(badges, logger), badges
}

func validParams() CreateBadgeParams {
	return CreateBadgeParams{
		Name:     "First Review",
		Category: "reviews",
		Rarity:   domain.RarityCommon,
		Criteria: domain.UnlockCriteria{Kind: domain.CriteriaCount, Target: 1, Metric: "reviews_written"},
		Points:   50,
	}
}

func TestCreateBadge(t *testing.T) {
	cat, badges := newCatalogEnv()

	badge, err := cat.CreateBadge(context.Background(), nil, validParams())
	require.NoError(t, err)
	assert.True(t, badge.IsActive)
	assert.Zero(t, badge.HolderCount)
	assert.Contains(t, badges.badges, badge.ID)
}

func TestCreateBadge_Invalid(t *testing.T) {
	cat, _ := newCatalogEnv()

	cases := map[string]func(*CreateBadgeParams){
		"empty name":      func(p *CreateBadgeParams) { p.Name = "" },
		"bad rarity":      func(p *CreateBadgeParams) { p.Rarity = "mythic" },
		"bad criteria":    func(p *CreateBadgeParams) { p.Criteria.Kind = "vibes" },
		"zero target":     func(p *CreateBadgeParams) { p.Criteria.Target = 0 },
		"negative points": func(p *CreateBadgeParams) { p.Points = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := validParams()
			mutate(&params)
			_, err := cat.CreateBadge(context.Background(), nil, params)
			require.Error(t, err)
			appErr, ok := err.(*domain.AppError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestCreateBadge_DuplicateName(t *testing.T) {
	cat, _ := newCatalogEnv()
	ctx := context.Background()

	_, err := cat.CreateBadge(ctx, nil, validParams())
	require.NoError(t, err)

	second := validParams()
	second.Points = 500
	_, err = cat.CreateBadge(ctx, nil, second)
	require.Error(t, err)
	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestListBadges_Sorted(t *testing.T) {
	cat, _ := newCatalogEnv()
	ctx := context.Background()

	mk := func(name string, rarity domain.BadgeRarity, points int64) {
		params := validParams()
		params.Name = name
		params.Rarity = rarity
		params.Points = points
		_, err := cat.CreateBadge(ctx, nil, params)
		require.NoError(t, err)
	}
	mk("Epic Low", domain.RarityEpic, 100)
	mk("Common High", domain.RarityCommon, 500)
	mk("Common Low", domain.RarityCommon, 100)
	mk("Legendary", domain.RarityLegendary, 5000)

	badges, err := cat.ListBadges(ctx, nil, domain.BadgeFilter{})
	require.NoError(t, err)
	require.Len(t, badges, 4)
	names := make([]string, len(badges))
	for i, b := range badges {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"Common High", "Common Low", "Epic Low", "Legendary"}, names)
}

func TestListVisibleBadges_HidesSecretAndInactive(t *testing.T) {
	cat, _ := newCatalogEnv()
	ctx := context.Background()

	visible, err := cat.CreateBadge(ctx, nil, validParams())
	require.NoError(t, err)

	secret := validParams()
	secret.Name = "Hidden Gem"
	secret.IsSecret = true
	_, err = cat.CreateBadge(ctx, nil, secret)
	require.NoError(t, err)

	retired := validParams()
	retired.Name = "Retired"
	created, err := cat.CreateBadge(ctx, nil, retired)
	require.NoError(t, err)
	_, err = cat.SetBadgeActive(ctx, nil, created.ID, false)
	require.NoError(t, err)

	badges, err := cat.ListVisibleBadges(ctx, nil, domain.BadgeFilter{})
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, visible.ID, badges[0].ID)
}

func TestSetBadgeActive_NotFound(t *testing.T) {
	cat, _ := newCatalogEnv()
	_, err := cat.SetBadgeActive(context.Background(), nil, uuid.New(), false)
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetBadge_NotFound(t *testing.T) {
	cat, _ := newCatalogEnv()
	_, err := cat.GetBadge(context.Background(), nil, uuid.New())
	require.Error(t, err)
}

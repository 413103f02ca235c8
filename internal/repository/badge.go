package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

const badgeColumns = `id, name, description, category, rarity,
	       criteria_kind, criteria_target, criteria_metric,
	       points, is_active, is_secret, holders, holder_count, created_at, updated_at`

type badgeRepo struct{}

// NewBadgeRepository returns a pgx-backed BadgeRepository.
func NewBadgeRepository() BadgeRepository {
	return &badgeRepo{}
}

func (r *badgeRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Badge, error) {
	row := db.QueryRow(ctx, `
		SELECT `+badgeColumns+`
		FROM badges WHERE id = $1`, id)
	return scanBadge(row)
}

func (r *badgeRepo) List(ctx context.Context, db DBTX, filter domain.BadgeFilter) ([]domain.Badge, error) {
	where := `WHERE true`
	args := []interface{}{}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.Rarity != nil {
		args = append(args, string(*filter.Rarity))
		where += fmt.Sprintf(` AND rarity = $%d`, len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += fmt.Sprintf(` AND is_active = $%d`, len(args))
	}

	// Rarity ascending (commonest first), points descending within a tier.
	rows, err := db.Query(ctx, `
		SELECT `+badgeColumns+`
		FROM badges
		`+where+`
		ORDER BY array_position(ARRAY['common','rare','epic','legendary'], rarity) ASC,
		         points DESC, name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		b, err := scanBadgeFromRows(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, *b)
	}
	return badges, rows.Err()
}

func (r *badgeRepo) Create(ctx context.Context, db DBTX, badge *domain.Badge) error {
	row := db.QueryRow(ctx, `
		INSERT INTO badges
		  (id, name, description, category, rarity, criteria_kind, criteria_target, criteria_metric,
		   points, is_active, is_secret)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		badge.ID, badge.Name, badge.Description, badge.Category, string(badge.Rarity),
		string(badge.Criteria.Kind), badge.Criteria.Target, badge.Criteria.Metric,
		badge.Points, badge.IsActive, badge.IsSecret,
	)
	if err := row.Scan(&badge.CreatedAt, &badge.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict(fmt.Sprintf("badge name %q already exists", badge.Name))
		}
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

func (r *badgeRepo) SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE badges SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return false, fmt.Errorf("set badge active: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AddHolder appends once per user; the holders check makes the append
// idempotent under concurrent unlock attempts.
func (r *badgeRepo) AddHolder(ctx context.Context, db DBTX, badgeID, userID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE badges
		SET holders = array_append(holders, $2),
		    holder_count = holder_count + 1,
		    updated_at = now()
		WHERE id = $1 AND NOT (holders @> ARRAY[$2]::uuid[])`, badgeID, userID)
	if err != nil {
		return false, fmt.Errorf("add badge holder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanBadge(row pgx.Row) (*domain.Badge, error) {
	var b domain.Badge
	err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.Category, &b.Rarity,
		&b.Criteria.Kind, &b.Criteria.Target, &b.Criteria.Metric,
		&b.Points, &b.IsActive, &b.IsSecret, &b.Holders, &b.HolderCount,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan badge: %w", err)
	}
	return &b, nil
}

func scanBadgeFromRows(rows pgx.Rows) (*domain.Badge, error) {
	var b domain.Badge
	err := rows.Scan(
		&b.ID, &b.Name, &b.Description, &b.Category, &b.Rarity,
		&b.Criteria.Kind, &b.Criteria.Target, &b.Criteria.Metric,
		&b.Points, &b.IsActive, &b.IsSecret, &b.Holders, &b.HolderCount,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan badge row: %w", err)
	}
	return &b, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type leaderboardRepo struct{}

// NewLeaderboardRepository returns a pgx-backed LeaderboardRepository.
func NewLeaderboardRepository() LeaderboardRepository {
	return &leaderboardRepo{}
}

// AddPoints uses server-side arithmetic so concurrent awards for the same
// user commute instead of losing updates. Level is derived in the same
// statement, keeping level == points/1000 + 1 at all times.
func (r *leaderboardRepo) AddPoints(ctx context.Context, db DBTX, userID uuid.UUID, points int64) (*domain.LeaderboardEntry, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO leaderboard_entries (user_id, total_points, level)
		VALUES ($1, $2, $2 / 1000 + 1)
		ON CONFLICT (user_id) DO UPDATE
		SET total_points = leaderboard_entries.total_points + EXCLUDED.total_points,
		    level = (leaderboard_entries.total_points + EXCLUDED.total_points) / 1000 + 1,
		    updated_at = now()
		RETURNING user_id, total_points, level, stats, created_at, updated_at`,
		userID, points)
	return scanLeaderboardEntry(row)
}

func (r *leaderboardRepo) GetOrCreate(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.LeaderboardEntry, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO leaderboard_entries (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, total_points, level, stats, created_at, updated_at`,
		userID)
	return scanLeaderboardEntry(row)
}

// RankedPage computes the global rank in the query itself; rank is never
// written back, so a stored row can not go stale. A minimum-level filter
// keeps a prefix of the points ordering, so filtered ranks stay global.
func (r *leaderboardRepo) RankedPage(ctx context.Context, db DBTX, page, limit int, filter domain.LeaderboardFilter) ([]domain.LeaderboardEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := `WHERE true`
	args := []interface{}{}
	if filter.MinLevel != nil {
		args = append(args, *filter.MinLevel)
		where += fmt.Sprintf(` AND level >= $%d`, len(args))
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM leaderboard_entries `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leaderboard entries: %w", err)
	}

	pageArgs := append(args, limit, offset)
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT user_id, total_points, level, stats, created_at, updated_at,
		       ROW_NUMBER() OVER (ORDER BY total_points DESC, user_id ASC) AS rank
		FROM leaderboard_entries
		%s
		ORDER BY total_points DESC, user_id ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leaderboard page: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var rank int64
		err := rows.Scan(&e.UserID, &e.TotalPoints, &e.Level, &e.Stats,
			&e.CreatedAt, &e.UpdatedAt, &rank)
		if err != nil {
			return nil, 0, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Rank = int(rank)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *leaderboardRepo) RankForUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.LeaderboardEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT user_id, total_points, level, stats, created_at, updated_at, rank FROM (
			SELECT user_id, total_points, level, stats, created_at, updated_at,
			       ROW_NUMBER() OVER (ORDER BY total_points DESC, user_id ASC) AS rank
			FROM leaderboard_entries
		) ranked
		WHERE user_id = $1`, userID)

	var e domain.LeaderboardEntry
	var rank int64
	err := row.Scan(&e.UserID, &e.TotalPoints, &e.Level, &e.Stats,
		&e.CreatedAt, &e.UpdatedAt, &rank)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ranked entry: %w", err)
	}
	e.Rank = int(rank)
	return &e, nil
}

func scanLeaderboardEntry(row pgx.Row) (*domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	err := row.Scan(&e.UserID, &e.TotalPoints, &e.Level, &e.Stats, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan leaderboard entry: %w", err)
	}
	return &e, nil
}

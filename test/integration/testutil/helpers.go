//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cinesocial/platform/internal/auth"
	"github.com/google/uuid"
)

// MemberToken mints a member-realm JWT for a fresh user and returns both.
func (env *TestEnv) MemberToken() (token string, userID uuid.UUID) {
	env.t.Helper()
	userID = uuid.New()
	token, err := env.JWTMgr.GenerateToken(auth.RealmMember, userID,
		fmt.Sprintf("%s@test.com", userID.String()[:8]), "member")
	if err != nil {
		env.t.Fatalf("MemberToken: %v", err)
	}
	return token, userID
}

// AdminToken mints an admin-realm JWT with the given role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "admin@test.com", role)
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.POST(path, body, token)
}

// AuthPOSTWithHeader performs an authenticated POST with one extra header set.
func (env *TestEnv) AuthPOSTWithHeader(path string, body interface{}, token, header, value string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(header, value)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("PATCH %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("PATCH", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("PATCH %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("PATCH %s: %v", path, err)
	}
	return resp
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("OPTIONS", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: new request: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("OPTIONS %s: %v", path, err)
	}
	return resp
}

// SeedBadgeOpts controls the badge row created by SeedBadge.
type SeedBadgeOpts struct {
	Name     string
	Rarity   string
	Target   int
	Points   int64
	IsActive bool
	IsSecret bool
}

// SeedBadge inserts a badge directly and returns its ID.
func (env *TestEnv) SeedBadge(opts SeedBadgeOpts) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if opts.Rarity == "" {
		opts.Rarity = "common"
	}
	if opts.Target == 0 {
		opts.Target = 10
	}

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO badges
		  (id, name, description, category, rarity, criteria_kind, criteria_target,
		   criteria_metric, points, is_active, is_secret)
		VALUES ($1, $2, '', 'test', $3, 'count', $4, 'actions', $5, $6, $7)`,
		id, opts.Name, opts.Rarity, opts.Target, opts.Points, opts.IsActive, opts.IsSecret)
	if err != nil {
		env.t.Fatalf("SeedBadge: %v", err)
	}
	return id
}

// GrantCoins credits a user's wallet directly, bypassing the API surface.
func (env *TestEnv) GrantCoins(userID uuid.UUID, amount int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := env.Pool.Begin(ctx)
	if err != nil {
		env.t.Fatalf("GrantCoins: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO coin_wallets (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		env.t.Fatalf("GrantCoins: ensure wallet: %v", err)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE coin_wallets SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance`, userID, amount).Scan(&balance)
	if err != nil {
		env.t.Fatalf("GrantCoins: update balance: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO coin_transactions
		  (user_id, type, amount, balance_after, reason, description)
		VALUES ($1, 'bonus', $2, $3, 'test_grant', 'integration test grant')`,
		userID, amount, balance)
	if err != nil {
		env.t.Fatalf("GrantCoins: insert tx: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		env.t.Fatalf("GrantCoins: commit: %v", err)
	}
}

// SetLastActivity rewinds a streak's last activity date to simulate day gaps.
func (env *TestEnv) SetLastActivity(userID uuid.UUID, streakType string, when time.Time) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := env.Pool.Exec(ctx, `
		UPDATE streaks SET last_activity_date = $3
		WHERE user_id = $1 AND streak_type = $2`, userID, streakType, when)
	if err != nil {
		env.t.Fatalf("SetLastActivity: %v", err)
	}
	if tag.RowsAffected() == 0 {
		env.t.Fatalf("SetLastActivity: no streak row for %s/%s", userID, streakType)
	}
}

// SetFreezes sets the available freeze count on a streak row.
func (env *TestEnv) SetFreezes(userID uuid.UUID, streakType string, n int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := env.Pool.Exec(ctx, `
		UPDATE streaks SET freezes_available = $3
		WHERE user_id = $1 AND streak_type = $2`, userID, streakType, n)
	if err != nil {
		env.t.Fatalf("SetFreezes: %v", err)
	}
	if tag.RowsAffected() == 0 {
		env.t.Fatalf("SetFreezes: no streak row for %s/%s", userID, streakType)
	}
}

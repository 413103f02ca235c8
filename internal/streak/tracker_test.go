package streak

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/policy"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streakKey struct {
	user uuid.UUID
	typ  domain.StreakType
}

type fakeStreaks struct {
	rows map[streakKey]*domain.Streak
}

func newFakeStreaks() *fakeStreaks {
	return &fakeStreaks{rows: make(map[streakKey]*domain.Streak)}
}

func (f *fakeStreaks) LockForUpdate(_ context.Context, _ pgx.Tx, userID uuid.UUID, streakType domain.StreakType) (*domain.Streak, error) {
	s, ok := f.rows[streakKey{userID, streakType}]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStreaks) Create(_ context.Context, _ pgx.Tx, streak *domain.Streak) error {
	f.rows[streakKey{streak.UserID, streak.Type}] = streak
	return nil
}

func (f *fakeStreaks) Update(_ context.Context, _ pgx.Tx, streak *domain.Streak) error {
	f.rows[streakKey{streak.UserID, streak.Type}] = streak
	return nil
}

func (f *fakeStreaks) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID) ([]domain.Streak, error) {
	var out []domain.Streak
	for key, s := range f.rows {
		if key.user == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeWallets struct {
	balances map[uuid.UUID]int64
}

func (f *fakeWallets) LockForUpdate(_ context.Context, _ pgx.Tx, userID uuid.UUID) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeWallets) ApplyDelta(_ context.Context, _ pgx.Tx, userID uuid.UUID, delta int64) (int64, error) {
	f.balances[userID] += delta
	return f.balances[userID], nil
}

type fakeTransactions struct {
	entries []domain.CoinTransaction
	keys    map[string]int
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{keys: make(map[string]int)}
}

func (f *fakeTransactions) FindByIdempotencyKey(_ context.Context, _ repository.DBTX, userID uuid.UUID, key string) (*domain.CoinTransaction, error) {
	if i, ok := f.keys[userID.String()+"/"+key]; ok {
		return &f.entries[i], nil
	}
	return nil, nil
}

func (f *fakeTransactions) Insert(_ context.Context, _ repository.DBTX, params domain.RecordTransactionParams, balanceAfter int64) (*domain.CoinTransaction, error) {
	tx := domain.CoinTransaction{
		ID: uuid.New(), UserID: params.UserID, Type: params.Type,
		Amount: params.Amount, BalanceAfter: balanceAfter, Reason: params.Reason,
		CreatedAt: time.Now(),
	}
	f.entries = append(f.entries, tx)
	if params.IdempotencyKey != "" {
		f.keys[params.UserID.String()+"/"+params.IdempotencyKey] = len(f.entries) - 1
	}
	return &tx, nil
}

func (f *fakeTransactions) LatestBalance(_ context.Context, _ repository.DBTX, userID uuid.UUID) (int64, error) {
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			return f.entries[i].BalanceAfter, nil
		}
	}
	return 0, nil
}

func (f *fakeTransactions) ListByUser(_ context.Context, _ repository.DBTX, _ uuid.UUID, _ domain.CoinTransactionFilter, _, _ int) ([]domain.CoinTransaction, int, error) {
	return nil, 0, nil
}

func (f *fakeTransactions) SumAmounts(_ context.Context, _ repository.DBTX, userID uuid.UUID) (int64, error) {
	var sum int64
	for _, tx := range f.entries {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

type fakeOutbox struct {
	drafts []domain.OutboxDraft
}

func (f *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	f.drafts = append(f.drafts, draft)
	return nil
}

type streakEnv struct {
	tracker *Tracker
	streaks *fakeStreaks
	txs     *fakeTransactions
	outbox  *fakeOutbox
}

func newStreakEnv(opts Options) *streakEnv {
	streaks := newFakeStreaks()
	txs := newFakeTransactions()
	outbox := &fakeOutbox{}
	engine := ledger.NewEngine(&fakeWallets{balances: make(map[uuid.UUID]int64)}, txs, outbox)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := NewTracker(nil, streaks, engine, outbox, opts, logger)
	return &streakEnv{tracker: tracker, streaks: streaks, txs: txs, outbox: outbox}
}

func day(offset int) time.Time {
	base := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func countEvents(drafts []domain.OutboxDraft, et domain.EventType) int {
	n := 0
	for _, d := range drafts {
		if d.EventType == et {
			n++
		}
	}
	return n
}

func TestRecordActivity_FirstActivity(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()

	result, err := env.tracker.RecordActivityTx(context.Background(), nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 1, result.Streak.LongestStreak)
	assert.Equal(t, domain.DefaultFreezeBudget, result.Streak.FreezesAvailable)
	assert.Len(t, result.Streak.History, 1)
	assert.False(t, result.Broken)
}

func TestRecordActivity_ConsecutiveDays(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyWatch, day(i))
		require.NoError(t, err)
	}

	streak := env.streaks.rows[streakKey{user, domain.StreakDailyWatch}]
	assert.Equal(t, 5, streak.CurrentStreak)
	assert.Equal(t, 5, streak.LongestStreak)
	assert.Len(t, streak.History, 5)
}

func TestRecordActivity_SameDayIgnoredByDefault(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)
	// Later the same calendar day, even across an hour boundary.
	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0).Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Len(t, result.Streak.History, 1)

	// The stored timestamp still tracks the latest activity.
	stored := env.streaks.rows[streakKey{user, domain.StreakDailyLogin}]
	assert.True(t, stored.LastActivityDate.Equal(day(0).Add(8*time.Hour)))
}

func TestRecordActivity_SameDayHistoryAppend(t *testing.T) {
	env := newStreakEnv(Options{LogSameDayActivity: true})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)
	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0).Add(8*time.Hour))
	require.NoError(t, err)
	// Counter untouched, history grows anyway.
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Len(t, result.Streak.History, 2)
}

func TestRecordActivity_MidnightBoundaryCounts(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	late := time.Date(2026, time.March, 10, 23, 50, 0, 0, time.UTC)
	early := time.Date(2026, time.March, 11, 0, 10, 0, 0, time.UTC)

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, late)
	require.NoError(t, err)
	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, early)
	require.NoError(t, err)
	// 20 minutes apart but one calendar day boundary crossed.
	assert.Equal(t, 2, result.Streak.CurrentStreak)
}

func TestRecordActivity_BreakResetsToOne(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(i))
		require.NoError(t, err)
	}
	// Two missed days.
	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(6))
	require.NoError(t, err)
	assert.True(t, result.Broken)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 4, result.Streak.LongestStreak)
	assert.Equal(t, 1, countEvents(env.outbox.drafts, domain.EventStreakBroken))
}

func TestRecordActivity_AutoFreezeBridgesGap(t *testing.T) {
	env := newStreakEnv(Options{FreezePolicy: policy.AutoFreeze{}})
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(i))
		require.NoError(t, err)
	}
	// One missed day, bridged by a freeze.
	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(4))
	require.NoError(t, err)
	assert.False(t, result.Broken)
	assert.Equal(t, 4, result.Streak.CurrentStreak)
	assert.Equal(t, 1, result.FreezesConsumed)
	assert.Equal(t, domain.DefaultFreezeBudget-1, result.Streak.FreezesAvailable)
	assert.Equal(t, 1, result.Streak.FreezesUsed)
	assert.Zero(t, countEvents(env.outbox.drafts, domain.EventStreakBroken))
}

func TestRecordActivity_MilestonePaysOnce(t *testing.T) {
	env := newStreakEnv(Options{Schedule: MilestoneSchedule{{Days: 3, RewardCoins: 30}}})
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(i))
		require.NoError(t, err)
	}

	streak := env.streaks.rows[streakKey{user, domain.StreakDailyLogin}]
	require.Len(t, streak.Milestones, 1)
	assert.Equal(t, 3, streak.Milestones[0].Days)
	assert.Equal(t, int64(30), streak.Milestones[0].RewardCoin)
	require.Len(t, env.txs.entries, 1)
	assert.Equal(t, domain.ReasonStreakMilestone, env.txs.entries[0].Reason)
	assert.Equal(t, int64(30), env.txs.entries[0].Amount)
	assert.Equal(t, 1, countEvents(env.outbox.drafts, domain.EventStreakMilestoneReached))

	// Further days do not re-pay the claimed tier.
	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(3))
	require.NoError(t, err)
	assert.Len(t, env.txs.entries, 1)
	assert.Equal(t, 1, countEvents(env.outbox.drafts, domain.EventStreakMilestoneReached))
}

func TestRecordActivity_InvalidType(t *testing.T) {
	env := newStreakEnv(Options{})
	_, err := env.tracker.RecordActivityTx(context.Background(), nil, uuid.New(), "hourly_blink", day(0))
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestRecordActivity_PastActivityRejected(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(3))
	require.NoError(t, err)
	_, err = env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(1))
	require.Error(t, err)
}

func TestUseFreeze_BridgesGap(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(i))
		require.NoError(t, err)
	}

	// Missed day(3); freeze on day(4), then activity the same day.
	streak, err := env.tracker.UseFreezeTx(ctx, nil, user, domain.StreakDailyLogin, day(4))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFreezeBudget-1, streak.FreezesAvailable)
	assert.Equal(t, 1, streak.FreezesUsed)

	result, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(4))
	require.NoError(t, err)
	assert.False(t, result.Broken)
	assert.Equal(t, 4, result.Streak.CurrentStreak)
}

func TestUseFreeze_NoGap(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)

	_, err = env.tracker.UseFreezeTx(ctx, nil, user, domain.StreakDailyLogin, day(1))
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestUseFreeze_BudgetExhausted(t *testing.T) {
	env := newStreakEnv(Options{FreezeBudget: 1})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)

	// Three missed days, one freeze available.
	_, err = env.tracker.UseFreezeTx(ctx, nil, user, domain.StreakDailyLogin, day(4))
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestUseFreeze_UnknownStreak(t *testing.T) {
	env := newStreakEnv(Options{})
	_, err := env.tracker.UseFreezeTx(context.Background(), nil, uuid.New(), domain.StreakDailyLogin, day(0))
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetUserStreaks(t *testing.T) {
	env := newStreakEnv(Options{})
	user := uuid.New()
	ctx := context.Background()

	_, err := env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyLogin, day(0))
	require.NoError(t, err)
	_, err = env.tracker.RecordActivityTx(ctx, nil, user, domain.StreakDailyReview, day(0))
	require.NoError(t, err)

	streaks, err := env.tracker.GetUserStreaks(ctx, nil, user)
	require.NoError(t, err)
	assert.Len(t, streaks, 2)
}

package app

import (
	"log/slog"
	"time"

	"github.com/cinesocial/platform/internal/achievement"
	"github.com/cinesocial/platform/internal/auth"
	"github.com/cinesocial/platform/internal/catalog"
	"github.com/cinesocial/platform/internal/engagement"
	"github.com/cinesocial/platform/internal/guard"
	"github.com/cinesocial/platform/internal/handler"
	adminhandler "github.com/cinesocial/platform/internal/handler/admin"
	"github.com/cinesocial/platform/internal/infra"
	"github.com/cinesocial/platform/internal/leaderboard"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/policy"
	"github.com/cinesocial/platform/internal/projection"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/cinesocial/platform/internal/streak"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Config *infra.Config
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	cfg := deps.Config
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	walletRepo := repository.NewWalletRepository()
	txRepo := repository.NewCoinTransactionRepository()
	badgeRepo := repository.NewBadgeRepository()
	achievementRepo := repository.NewAchievementRepository()
	streakRepo := repository.NewStreakRepository()
	leaderboardRepo := repository.NewLeaderboardRepository()
	engagementRepo := repository.NewEngagementRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine
	ledgerEngine := ledger.NewEngine(walletRepo, txRepo, outboxRepo)

	// Services
	cat := catalog.NewCatalog(badgeRepo, logger)
	board := leaderboard.NewBoard(pool, leaderboardRepo, outboxRepo, logger)
	achievementTracker := achievement.NewTracker(pool, badgeRepo, achievementRepo, leaderboardRepo, ledgerEngine, outboxRepo, logger)
	streakTracker := streak.NewTracker(pool, streakRepo, ledgerEngine, outboxRepo, streak.Options{
		FreezePolicy:       policy.NoAutoFreeze{},
		FreezeBudget:       cfg.StreakFreezeBudget,
		LogSameDayActivity: cfg.LogSameDayActivity,
	}, logger)
	engagementSvc := engagement.NewService(pool, engagementRepo, streakTracker, logger)

	// Guards and projections
	signalLimiter := guard.NewRateLimiter(cfg.SignalRateLimit, time.Minute)
	idemGuard := guard.NewIdempotencyGuard()
	cache := projection.NewInMemoryStore()

	// Handlers
	walletHandler := handler.NewWalletHandler(ledgerEngine, cache, pool)
	achievementHandler := handler.NewAchievementHandler(achievementTracker, signalLimiter, idemGuard, cache, pool)
	streakHandler := handler.NewStreakHandler(streakTracker, cache, pool)
	leaderboardHandler := handler.NewLeaderboardHandler(board, cache, pool)
	badgeHandler := handler.NewBadgeHandler(cat, pool)
	engagementHandler := handler.NewEngagementHandler(engagementSvc, signalLimiter, idemGuard, pool)

	// Admin handlers
	badgeAdmin := adminhandler.NewBadgeAdminHandler(cat, pool)
	ledgerAdmin := adminhandler.NewLedgerAdminHandler(ledgerEngine, pool)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(cfg.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Member-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateMember(jwtMgr))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", walletHandler.GetBalance)
			r.Get("/transactions", walletHandler.GetTransactions)
		})

		r.Route("/achievements", func(r chi.Router) {
			r.Post("/progress", achievementHandler.RecordProgress)
			r.Get("/me", achievementHandler.GetMyAchievements)
			r.Get("/{badgeID}", achievementHandler.GetBadgeProgress)
		})

		r.Get("/badges", badgeHandler.ListBadges)

		r.Route("/streaks", func(r chi.Router) {
			r.Post("/activity", streakHandler.RecordActivity)
			r.Get("/me", streakHandler.GetMyStreaks)
			r.Post("/freeze", streakHandler.UseFreeze)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", leaderboardHandler.GetLeaderboard)
			r.Get("/me", leaderboardHandler.GetMyEntry)
		})

		r.Route("/engagement", func(r chi.Router) {
			r.Post("/signal", engagementHandler.RecordSignal)
			r.Get("/me", engagementHandler.GetMyEngagement)
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/badges", func(r chi.Router) {
			r.Get("/", badgeAdmin.ListBadges)
			r.With(auth.RequireRole(auth.WriteRoles()...)).Post("/", badgeAdmin.CreateBadge)
			r.With(auth.RequireRole(auth.WriteRoles()...)).Patch("/{id}/toggle", badgeAdmin.ToggleBadge)
		})

		r.Get("/ledger/{userID}/audit", ledgerAdmin.AuditUser)
	})

	return r
}

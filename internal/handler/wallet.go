package handler

import (
	"net/http"
	"strconv"

	"github.com/cinesocial/platform/internal/auth"
	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/projection"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
)

// WalletHandler handles coin balance and transaction history endpoints.
type WalletHandler struct {
	engine *ledger.Engine
	cache  projection.Store
	db     repository.DBTX
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(engine *ledger.Engine, cache projection.Store, db repository.DBTX) *WalletHandler {
	return &WalletHandler{engine: engine, cache: cache, db: db}
}

// balanceResponse is the shape of GET /wallet/balance.
type balanceResponse struct {
	Balance int64 `json:"balance"`
	Cached  bool  `json:"cached"`
}

// GetBalance handles GET /wallet/balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if p, err := projection.GetBalance(r.Context(), h.cache, userID); err == nil {
		RespondJSON(w, http.StatusOK, balanceResponse{Balance: p.Balance, Cached: true})
		return
	}

	balance, err := h.engine.GetBalance(r.Context(), h.db, userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("get balance", err))
		return
	}
	_ = projection.UpdateBalance(r.Context(), h.cache, userID, balance)

	RespondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// txListResponse wraps a page of transactions.
type txListResponse struct {
	Transactions []domain.CoinTransaction `json:"transactions"`
	Page         int                      `json:"page"`
	Limit        int                      `json:"limit"`
	Total        int                      `json:"total"`
}

// GetTransactions handles GET /wallet/transactions with page-based
// pagination and an optional ?type= filter.
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	page, limit := pageParams(r)

	var filter domain.CoinTransactionFilter
	if typ := r.URL.Query().Get("type"); typ != "" {
		txType := domain.CoinTransactionType(typ)
		if !domain.ValidCoinTransactionTypes[txType] {
			RespondError(w, domain.ErrValidation("invalid transaction type: "+typ))
			return
		}
		filter.Type = &txType
	}

	txs, total, err := h.engine.ListTransactions(r.Context(), h.db, userID, filter, page, limit)
	if err != nil {
		RespondError(w, domain.ErrInternal("list transactions", err))
		return
	}

	RespondJSON(w, http.StatusOK, txListResponse{
		Transactions: txs,
		Page:         page,
		Limit:        limit,
		Total:        total,
	})
}

// userIDFromContext extracts and validates the member UUID from auth context.
func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}

// pageParams parses ?page= and ?limit= with the shared defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			page = n
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return page, limit
}

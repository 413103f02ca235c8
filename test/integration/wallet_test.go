//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/cinesocial/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_NewUserZero(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.MemberToken()

	resp := env.AuthGET("/wallet/balance", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var bal struct {
		Balance int64 `json:"balance"`
		Cached  bool  `json:"cached"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	assert.Equal(t, int64(0), bal.Balance)
	assert.False(t, bal.Cached)
}

func TestBalance_AfterGrant(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.MemberToken()
	env.GrantCoins(userID, 500)

	resp := env.AuthGET("/wallet/balance", token)
	defer resp.Body.Close()

	var bal struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	assert.Equal(t, int64(500), bal.Balance)
}

func TestBalance_SecondReadServedFromCache(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.MemberToken()
	env.GrantCoins(userID, 250)

	resp1 := env.AuthGET("/wallet/balance", token)
	var first struct {
		Balance int64 `json:"balance"`
		Cached  bool  `json:"cached"`
	}
	require.NoError(t, json.NewDecoder(resp1.Body).Decode(&first))
	resp1.Body.Close()
	assert.False(t, first.Cached)

	resp2 := env.AuthGET("/wallet/balance", token)
	defer resp2.Body.Close()
	var second struct {
		Balance int64 `json:"balance"`
		Cached  bool  `json:"cached"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Balance, second.Balance)
}

func TestBalance_RequiresAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/wallet/balance")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBalance_IsolatedBetweenUsers(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token1, userID1 := env.MemberToken()
	token2, _ := env.MemberToken()
	env.GrantCoins(userID1, 7500)

	resp1 := env.AuthGET("/wallet/balance", token1)
	var bal1 struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp1.Body).Decode(&bal1))
	resp1.Body.Close()
	assert.Equal(t, int64(7500), bal1.Balance)

	resp2 := env.AuthGET("/wallet/balance", token2)
	defer resp2.Body.Close()
	var bal2 struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&bal2))
	assert.Equal(t, int64(0), bal2.Balance)
}

func TestTransactions_ListNewestFirst(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.MemberToken()
	env.GrantCoins(userID, 100)
	env.GrantCoins(userID, 200)
	env.GrantCoins(userID, 300)

	resp := env.AuthGET("/wallet/transactions", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Transactions []struct {
			Amount       int64 `json:"amount"`
			BalanceAfter int64 `json:"balance_after"`
		} `json:"transactions"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 3, list.Total)
	require.Len(t, list.Transactions, 3)
	assert.Equal(t, int64(300), list.Transactions[0].Amount)
	assert.Equal(t, int64(600), list.Transactions[0].BalanceAfter)
}

func TestTransactions_Pagination(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.MemberToken()
	for i := 0; i < 5; i++ {
		env.GrantCoins(userID, 10)
	}

	resp := env.AuthGET("/wallet/transactions?page=2&limit=2", token)
	defer resp.Body.Close()

	var list struct {
		Transactions []json.RawMessage `json:"transactions"`
		Page         int               `json:"page"`
		Limit        int               `json:"limit"`
		Total        int               `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, 5, list.Total)
	assert.Len(t, list.Transactions, 2)
}

func TestTransactions_InvalidTypeFilter(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.MemberToken()

	resp := env.AuthGET("/wallet/transactions?type=jackpot", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func TestTransactions_TypeFilter(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.MemberToken()
	env.GrantCoins(userID, 100)

	resp := env.AuthGET(fmt.Sprintf("/wallet/transactions?type=%s", "bonus"), token)
	defer resp.Body.Close()

	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	resp2 := env.AuthGET("/wallet/transactions?type=spend", token)
	defer resp2.Body.Close()
	var empty struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&empty))
	assert.Equal(t, 0, empty.Total)
}

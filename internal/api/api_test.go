package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance_tracker/internal/config"
	"finance_tracker/internal/dbtest"
	"finance_tracker/internal/domain"
	"finance_tracker/internal/ledger"
	"finance_tracker/internal/report"
	"finance_tracker/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour, CacheTTL: time.Minute}
	svc := ledger.NewService(gdb, nil, 3)
	return &testServer{t: t, router: NewRouter(cfg, gdb, rdb, svc), db: gdb, mr: mr}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// signUp registers and logs in a user, returning its token and id
func (s *testServer) signUp(username string) (string, uint) {
	s.t.Helper()
	creds := gin.H{"username": username, "password": "password123"}
	w := s.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[AuthResponse](s.t, w)
	require.NotEmpty(s.t, resp.Token)
	return resp.Token, resp.UserID
}

type accountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
}

type transactionResponse struct {
	Transaction domain.Transaction `json:"transaction"`
}

func (s *testServer) createAccount(token, name, balance string) domain.Account {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/accounts", token, gin.H{"account_name": name, "balance": balance})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	accounts := decode[accountsResponse](s.t, w).Accounts
	require.NotEmpty(s.t, accounts)
	return accounts[len(accounts)-1]
}

func (s *testServer) balance(token, accountID string) decimal.Decimal {
	s.t.Helper()
	w := s.do(http.MethodGet, "/api/accounts", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	for _, a := range decode[[]domain.Account](s.t, w) {
		if a.ID == accountID {
			return a.Balance
		}
	}
	s.t.Fatalf("account %s not listed", accountID)
	return decimal.Zero
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signUp("alice")
	assert.NotZero(t, userID)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"duplicate username", "/api/auth/register", gin.H{"username": "Alice", "password": "password123"}, http.StatusBadRequest},
		{"short password", "/api/auth/register", gin.H{"username": "bob", "password": "short"}, http.StatusBadRequest},
		{"bad username", "/api/auth/register", gin.H{"username": "b!", "password": "password123"}, http.StatusBadRequest},
		{"missing fields", "/api/auth/register", gin.H{}, http.StatusBadRequest},
		{"wrong password", "/api/auth/login", gin.H{"username": "alice", "password": "wrongpass1"}, http.StatusUnauthorized},
		{"unknown user", "/api/auth/login", gin.H{"username": "nobody", "password": "password123"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	t.Run("protected routes need a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts", "garbage", nil).Code)
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/accounts", token, nil).Code)
	})
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signUp("alice")

	acc := s.createAccount(token, "  Wallet  ", "100.50")
	assert.Equal(t, "Wallet", acc.Name)
	assert.Equal(t, userID, acc.UserID)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("100.50")))

	w := s.do(http.MethodPost, "/api/accounts", token, gin.H{"account_name": "Savings"})
	require.Equal(t, http.StatusCreated, w.Code)
	accounts := decode[accountsResponse](t, w).Accounts
	require.Len(t, accounts, 2)
	assert.True(t, accounts[1].Balance.IsZero())

	w = s.do(http.MethodPut, "/api/accounts", token, gin.H{"accountId": acc.ID, "account_name": "Cash", "balance": "75"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Cash", decode[accountsResponse](t, w).Accounts[0].Name)
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(75)))

	w = s.do(http.MethodPut, "/api/accounts", token, gin.H{"accountId": "missing", "balance": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/accounts", token, gin.H{"account_name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/accounts", token, gin.H{"account_name": "Odd", "balance": "10.005"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/accounts/"+acc.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	remaining := decode[accountsResponse](t, w).Accounts
	require.Len(t, remaining, 1)
	assert.Equal(t, "Savings", remaining[0].Name)
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp("alice")
	acc := s.createAccount(token, "Wallet", "100")

	w := s.do(http.MethodPost, "/api/transactions", token, gin.H{
		"accountId": acc.ID, "amount": "50", "type": "debit", "category": "food", "date": "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[transactionResponse](t, w).Transaction
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), created.Date.UTC())
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(50)))

	w = s.do(http.MethodPut, "/api/transactions", token, gin.H{
		"transactionId": created.ID, "accountId": acc.ID, "amount": "30", "type": "credit", "category": "other",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[transactionResponse](t, w).Transaction
	assert.Equal(t, created.Date.UTC(), updated.Date.UTC())
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(130)))

	w = s.do(http.MethodGet, "/api/transactions/"+acc.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := decode[[]domain.Transaction](t, w)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TypeCredit, txs[0].Type)

	w = s.do(http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(100)))

	w = s.do(http.MethodGet, "/api/transactions/"+acc.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.Transaction](t, w))

	w = s.do(http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionErrors(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp("alice")
	acc := s.createAccount(token, "Wallet", "20")

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"insufficient balance", gin.H{"accountId": acc.ID, "amount": "25", "type": "debit", "category": "food"}, http.StatusBadRequest},
		{"zero amount", gin.H{"accountId": acc.ID, "amount": "0", "type": "credit", "category": "food"}, http.StatusBadRequest},
		{"unknown type", gin.H{"accountId": acc.ID, "amount": "1", "type": "refund", "category": "food"}, http.StatusBadRequest},
		{"unknown category", gin.H{"accountId": acc.ID, "amount": "1", "type": "credit", "category": "pets"}, http.StatusBadRequest},
		{"bad date", gin.H{"accountId": acc.ID, "amount": "1", "type": "credit", "category": "food", "date": "June 1st"}, http.StatusBadRequest},
		{"missing account", gin.H{"accountId": "missing", "amount": "1", "type": "credit", "category": "food"}, http.StatusNotFound},
		{"sub-cent amount", gin.H{"accountId": acc.ID, "amount": "0.005", "type": "credit", "category": "food"}, http.StatusBadRequest},
		{"amount out of range", gin.H{"accountId": acc.ID, "amount": "1e30", "type": "credit", "category": "food"}, http.StatusBadRequest},
		{"malformed amount", gin.H{"accountId": acc.ID, "amount": "ten", "type": "credit", "category": "food"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/transactions", token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(20)))

	w := s.do(http.MethodPut, "/api/transactions", token, gin.H{"accountId": acc.ID, "amount": "1", "type": "credit", "category": "food"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOtherUsersDataIsOffLimits(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signUp("alice")
	mallory, _ := s.signUp("mallory")
	acc := s.createAccount(alice, "Wallet", "100")

	w := s.do(http.MethodPost, "/api/transactions", alice, gin.H{"accountId": acc.ID, "amount": "10", "type": "credit", "category": "other"})
	require.Equal(t, http.StatusCreated, w.Code)
	txID := decode[transactionResponse](t, w).Transaction.ID

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/transactions/"+txID, mallory, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/accounts/"+acc.ID, mallory, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/transactions", mallory,
		gin.H{"accountId": acc.ID, "amount": "10", "type": "debit", "category": "food"}).Code)

	// Reads are filtered by the caller, so a foreign account looks empty
	w = s.do(http.MethodGet, "/api/transactions/"+acc.ID, mallory, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.Transaction](t, w))

	w = s.do(http.MethodGet, "/api/analytics/"+acc.ID, mallory, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[struct {
		Summary report.Summary `json:"summary"`
	}](t, w).Summary.Count)

	w = s.do(http.MethodGet, "/api/accounts", mallory, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.Account](t, w))
	assert.True(t, s.balance(alice, acc.ID).Equal(decimal.NewFromInt(110)))
}

func TestReadsAreCachedAndInvalidated(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signUp("alice")
	acc := s.createAccount(token, "Wallet", "100")

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/accounts", token, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/transactions/"+acc.ID, token, nil).Code)
	assert.True(t, s.mr.Exists(utils.AccountsKey(userID)))
	assert.True(t, s.mr.Exists(utils.TransactionsKey(userID, acc.ID)))

	w := s.do(http.MethodPost, "/api/transactions", token, gin.H{"accountId": acc.ID, "amount": "5", "type": "debit", "category": "food"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, s.mr.Exists(utils.AccountsKey(userID)))
	assert.False(t, s.mr.Exists(utils.TransactionsKey(userID, acc.ID)))
	assert.True(t, s.balance(token, acc.ID).Equal(decimal.NewFromInt(95)))
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp("alice")
	acc := s.createAccount(token, "Wallet", "0")

	for _, body := range []gin.H{
		{"accountId": acc.ID, "amount": "1000", "type": "credit", "category": "other"},
		{"accountId": acc.ID, "amount": "250", "type": "debit", "category": "housing"},
		{"accountId": acc.ID, "amount": "50", "type": "debit", "category": "food"},
		{"accountId": acc.ID, "amount": "20", "type": "to_give", "category": "other"},
	} {
		w := s.do(http.MethodPost, "/api/transactions", token, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/api/analytics/"+acc.ID+"?timeframe=week", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[struct {
		Summary report.Summary `json:"summary"`
	}](t, w).Summary

	assert.Equal(t, report.Week, summary.Timeframe)
	assert.Equal(t, 4, summary.Count)
	assert.True(t, summary.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.SavingsRate.Equal(decimal.NewFromInt(70)))
	assert.True(t, summary.ToGive.Equal(decimal.NewFromInt(20)))
	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, domain.CategoryHousing, summary.ByCategory[0].Category)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	alice, aliceID := s.signUp("alice")
	root, rootID := s.signUp("root")
	acc := s.createAccount(alice, "Wallet", "100")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", root, nil).Code)
	require.NoError(t, s.db.Model(&domain.User{}).Where("id = ?", rootID).Update("role", domain.RoleAdmin).Error)

	w := s.do(http.MethodGet, "/api/admin/users?page_size=10", root, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	users := decode[struct {
		Users  []UserAdminResponse `json:"users"`
		Total  int64               `json:"total"`
		Cached bool                `json:"cached"`
	}](t, w)
	assert.EqualValues(t, 2, users.Total)
	assert.False(t, users.Cached)
	require.Len(t, users.Users, 2)
	assert.Equal(t, aliceID, users.Users[0].ID)
	require.Len(t, users.Users[0].Accounts, 1)

	w = s.do(http.MethodGet, "/api/admin/users?page_size=10", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[struct {
		Cached bool `json:"cached"`
	}](t, w).Cached)

	w = s.do(http.MethodPost, "/api/transactions", alice, gin.H{"accountId": acc.ID, "amount": "10", "type": "debit", "category": "food"})
	require.Equal(t, http.StatusCreated, w.Code)

	// a user's write drops the admin listings that embed their balances
	w = s.do(http.MethodGet, "/api/admin/users?page_size=10", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Users  []UserAdminResponse `json:"users"`
		Cached bool                `json:"cached"`
	}](t, w)
	assert.False(t, listed.Cached)
	assert.True(t, listed.Users[0].Accounts[0].Balance.Equal(decimal.NewFromInt(90)))

	w = s.do(http.MethodGet, fmt.Sprintf("/api/admin/transactions?user_id=%d&type=debit", aliceID), root, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)

	// Corrupt the stored balance behind the ledger's back
	require.NoError(t, s.db.Model(&domain.Account{}).Where("id = ?", acc.ID).Update("balance", decimal.NewFromInt(500)).Error)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/admin/reconcile?user_id=%d&fix=true", aliceID), root, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[ledger.ReconcileReport](t, w)
	assert.Equal(t, 1, rep.Checked)
	require.Len(t, rep.Drifts, 1)
	assert.True(t, rep.Drifts[0].Expected.Equal(decimal.NewFromInt(90)))
	assert.True(t, rep.Drifts[0].Fixed)
	assert.True(t, s.balance(alice, acc.ID).Equal(decimal.NewFromInt(90)))
	for _, key := range s.mr.Keys() {
		assert.NotContains(t, key, "admin:", "fixed balances must not be served from the admin cache")
	}

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/admin/reconcile?user_id=abc", root, nil).Code)
}

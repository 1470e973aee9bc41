package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finch-bank/finchctl/config"
	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/guard"
	"github.com/finch-bank/finchctl/internal/querycache"
)

// fakeBackend is a minimal Finch API for scenario tests. It issues one valid
// token and counts the requests each path receives.
type fakeBackend struct {
	mu         sync.Mutex
	calls      map[string]int
	validToken string
	revoked    bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int), validToken: "tok-valid"}
}

func (b *fakeBackend) callCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked = true
}

func (b *fakeBackend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.revoked && r.Header.Get("Authorization") == "Bearer "+b.validToken
}

func (b *fakeBackend) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "ada" || creds.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "invalid credentials"})
			return
		}
		writeJSON(w, map[string]string{"token": b.validToken})
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "token invalid"})
			return
		}
		writeJSON(w, map[string]string{"id": "u-1", "username": "ada", "email": "ada@example.com"})
	})

	authed := func(path string, respond func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.calls[path]++
			b.mu.Unlock()
			if !b.authorized(r) {
				w.WriteHeader(http.StatusUnauthorized)
				writeJSON(w, map[string]string{"detail": "token invalid"})
				return
			}
			respond(w, r)
		})
	}

	authed("/api/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"acc-1","account_number":"1000200030","account_type":"checking","balance":"200.00","currency":"USD"}]`))
	})
	authed("/api/v1/accounts/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_balance":"200.00","available_balance":"200.00","account_count":1,"currency":"USD"}`))
	})
	authed("/api/v1/accounts/lookup", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("account_number") != "9000100020" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "no account with that number"})
			return
		}
		w.Write([]byte(`{"account_number":"9000100020","owner_display_name":"G. Hopper","account_type":"checking"}`))
	})
	authed("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[],"total_count":0,"page":1,"page_size":20,"total_pages":0,"has_next":false,"has_previous":false}`))
	})
	authed("/api/v1/transactions/recent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	authed("/api/v1/transactions/deposit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-1","account_id":"acc-1","kind":"deposit","amount":"100.00","balance_after":"300.00"}`))
	})
	authed("/api/v1/transactions/withdraw", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"message":"insufficient funds","field":"amount"}]}`))
	})
	authed("/api/v1/transactions/transfer-by-account-number", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["to_account_number"] != "9000100020" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "unknown counterparty"})
			return
		}
		w.Write([]byte(`{"id":"tx-2","account_id":"acc-1","kind":"transfer_out","amount":"25.00"}`))
	})
	authed("/api/v1/investments/portfolio", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_value":"0.00","total_cost":"0.00","total_gain_loss":"0.00","holding_count":0}`))
	})

	return mux
}

func newTestEngine(t *testing.T) (*Engine, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		APIBaseURL:       server.URL,
		RequestTimeout:   5 * time.Second,
		FreshnessWindow:  time.Minute,
		TokenStoragePath: filepath.Join(t.TempDir(), "token"),
	}
	eng, err := New(cfg, nil)
	require.NoError(t, err)
	return eng, backend
}

func login(t *testing.T, eng *Engine) {
	t.Helper()
	_, err := eng.Session.Login(context.Background(), domain.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
}

func TestEngine_LoginAuthenticatesAndGuardsRoutes(t *testing.T) {
	eng, _ := newTestEngine(t)

	user, err := eng.Session.Login(context.Background(), domain.Credentials{Username: "ada", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, domain.StatusAuthenticated, eng.Session.Status())

	assert.Equal(t, guard.ActionAllow, eng.Guard.Decide(eng.Session.Status(), "/dashboard").Action)
	assert.Equal(t, guard.ActionRedirectToHome, eng.Guard.Decide(eng.Session.Status(), "/login").Action)
}

func TestEngine_BadCredentialsSurfacedNotRedirected(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Session.Login(context.Background(), domain.Credentials{Username: "ada", Password: "wrong"})

	require.Error(t, err)
	assert.Equal(t, domain.ErrKindUnauthorized, domain.ErrorKindOf(err))
	assert.Equal(t, domain.StatusUnauthenticated, eng.Session.Status())
}

func TestEngine_UnauthorizedReadAutoLogsOut(t *testing.T) {
	eng, backend := newTestEngine(t)
	login(t, eng)

	_, err := eng.Accounts(context.Background())
	require.NoError(t, err)

	backend.revoke()
	eng.Cache.Invalidate(querycache.FamilyAccounts())

	_, err = eng.Accounts(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.ErrKindUnauthorized, domain.ErrorKindOf(err))
	assert.Equal(t, domain.StatusUnauthenticated, eng.Session.Status())
	assert.Empty(t, eng.Gateway.Token())
	assert.Equal(t, guard.ActionRedirectToEntry, eng.Guard.Decide(eng.Session.Status(), "/dashboard").Action)
}

func TestEngine_ReadsAreCachedWithinWindow(t *testing.T) {
	eng, backend := newTestEngine(t)
	login(t, eng)

	_, err := eng.Accounts(context.Background())
	require.NoError(t, err)
	_, err = eng.Accounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount("/api/v1/accounts"))
}

func TestEngine_DepositStalenessAndRefetch(t *testing.T) {
	eng, backend := newTestEngine(t)
	login(t, eng)

	_, err := eng.Accounts(context.Background())
	require.NoError(t, err)
	_, err = eng.AccountSummary(context.Background())
	require.NoError(t, err)
	_, err = eng.Transactions(context.Background(), "acc-1", 1)
	require.NoError(t, err)

	_, err = eng.Mutations.Deposit(context.Background(), "acc-1", decimal.RequireFromString("100.00"), "")
	require.NoError(t, err)

	assert.Equal(t, querycache.StateStale, eng.Cache.State(querycache.KeyAccounts()))
	assert.Equal(t, querycache.StateStale, eng.Cache.State(querycache.KeyAccountSummary()))
	assert.Equal(t, querycache.StateStale, eng.Cache.State(querycache.KeyTransactions("acc-1", 1)))

	_, err = eng.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.callCount("/api/v1/accounts"), "stale entry must refetch")
}

func TestEngine_WithdrawFailureLeavesCacheFresh(t *testing.T) {
	eng, _ := newTestEngine(t)
	login(t, eng)

	_, err := eng.Accounts(context.Background())
	require.NoError(t, err)

	_, err = eng.Mutations.Withdraw(context.Background(), "acc-1", decimal.RequireFromString("999.00"), "")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindValidation, domain.ErrorKindOf(err))

	assert.Equal(t, querycache.StateFresh, eng.Cache.State(querycache.KeyAccounts()))
}

func TestEngine_CrossUserTransferRequiresConfirmedLookup(t *testing.T) {
	eng, backend := newTestEngine(t)
	login(t, eng)

	r := eng.NewTransferSession()

	t.Run("rejected before any lookup", func(t *testing.T) {
		_, err := eng.CrossUserTransfer(context.Background(), r, "acc-1", decimal.RequireFromString("25.00"), "")
		assert.ErrorIs(t, err, domain.ErrLookupNotConfirmed)
		assert.Equal(t, 0, backend.callCount("/api/v1/transactions/transfer-by-account-number"))
	})

	t.Run("rejected after the number text changes", func(t *testing.T) {
		r.SetNumber("9000100020")
		_, err := r.Lookup(context.Background())
		require.NoError(t, err)

		r.SetNumber("9000100021")

		_, err = eng.CrossUserTransfer(context.Background(), r, "acc-1", decimal.RequireFromString("25.00"), "")
		assert.ErrorIs(t, err, domain.ErrLookupNotConfirmed)
		assert.Equal(t, 0, backend.callCount("/api/v1/transactions/transfer-by-account-number"))
	})

	t.Run("submits the confirmed number", func(t *testing.T) {
		r.SetNumber("9000100020")
		_, err := r.Lookup(context.Background())
		require.NoError(t, err)

		txn, err := eng.CrossUserTransfer(context.Background(), r, "acc-1", decimal.RequireFromString("25.00"), "")
		require.NoError(t, err)
		assert.Equal(t, "tx-2", txn.ID)
		assert.Equal(t, 1, backend.callCount("/api/v1/transactions/transfer-by-account-number"))
	})
}

func TestEngine_LookupMissThenEditResetsResolver(t *testing.T) {
	eng, _ := newTestEngine(t)
	login(t, eng)

	r := eng.NewTransferSession()
	r.SetNumber("0000000000")
	result, err := r.Lookup(context.Background())

	require.NoError(t, err, "a miss is a normal outcome")
	assert.Nil(t, result)

	r.SetNumber("0000000001")
	assert.Equal(t, "idle", r.State().String())
}

func TestEngine_DashboardFanOut(t *testing.T) {
	eng, backend := newTestEngine(t)
	login(t, eng)

	dash, err := eng.Dashboard(context.Background(), false)

	require.NoError(t, err)
	require.NotNil(t, dash.Summary)
	assert.Equal(t, 1, dash.Summary.AccountCount)
	require.Len(t, dash.Accounts, 1)

	// A second dashboard inside the freshness window issues no new calls.
	_, err = eng.Dashboard(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.callCount("/api/v1/accounts"))
	assert.Equal(t, 1, backend.callCount("/api/v1/accounts/summary"))
	assert.Equal(t, 1, backend.callCount("/api/v1/investments/portfolio"))
}

func TestEngine_RestoreFromStoredToken(t *testing.T) {
	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	tokenPath := filepath.Join(t.TempDir(), "token")
	cfg := &config.Config{
		APIBaseURL:       server.URL,
		RequestTimeout:   5 * time.Second,
		FreshnessWindow:  time.Minute,
		TokenStoragePath: tokenPath,
	}

	first, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = first.Session.Login(context.Background(), domain.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)

	// A new process with the same storage restores silently.
	second, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, second.Session.Restore(context.Background()))
	assert.Equal(t, domain.StatusAuthenticated, second.Session.Status())
	assert.Equal(t, "ada", second.Session.User().Username)
}

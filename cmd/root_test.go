package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
)

// testBackend is a minimal fake of the Finch API for command tests. The
// valid token is "tok-1"; login succeeds for ada/secret.
type testBackend struct {
	mux   *http.ServeMux
	mu    sync.Mutex
	calls map[string]int
}

func newTestBackend() *testBackend {
	b := &testBackend{
		mux:   http.NewServeMux(),
		calls: make(map[string]int),
	}

	b.mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "ada" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})
	b.mux.HandleFunc("GET /api/v1/auth/me", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"user-1","username":"ada","email":"ada@example.com","full_name":"Ada Lovelace","created_at":"2024-01-15T00:00:00Z"}`))
	}))
	b.mux.HandleFunc("GET /api/v1/accounts", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"acc-1","account_number":"1111222233","account_type":"checking","nickname":"Everyday","balance":"150.00","currency":"USD","created_at":"2024-02-01T00:00:00Z"}]`))
	}))
	b.mux.HandleFunc("GET /api/v1/accounts/summary", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_balance":"150.00","available_balance":"150.00","account_count":1,"currency":"USD","as_of":"2024-03-01T00:00:00Z"}`))
	}))
	b.mux.HandleFunc("POST /api/v1/transactions/deposit", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"tx-1","account_id":"acc-1","kind":"deposit","amount":"50.00","balance_after":"200.00","description":"","created_at":"2024-03-02T00:00:00Z"}`))
	}))
	b.mux.HandleFunc("GET /api/v1/accounts/lookup", b.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("account_number") != "9998887776" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"account not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"account_number":"9998887776","owner_display_name":"Grace Hopper","account_type":"checking"}`))
	}))

	return b
}

func (b *testBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"not authenticated"}`))
			return
		}
		next(w, r)
	}
}

func (b *testBackend) callCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

// setupCmdTest points the CLI at a fake backend with an isolated token file.
func setupCmdTest(t *testing.T) *testBackend {
	t.Helper()

	backend := newTestBackend()
	server := httptest.NewServer(backend.mux)
	t.Cleanup(server.Close)

	t.Setenv("FINCH_API_URL", server.URL)
	t.Setenv("FINCH_TOKEN_PATH", filepath.Join(t.TempDir(), "token"))
	t.Setenv("FINCH_LOG_LEVEL", "error")

	quiet = false
	verbose = false
	colorFlag = "never"
	cfgFile = filepath.Join(t.TempDir(), "no-such-config.yaml")

	return backend
}

// signIn stores a valid session token through the login command.
func signIn(t *testing.T) {
	t.Helper()
	rootCmd.SetArgs([]string{"login", "-u", "ada", "-p", "secret"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

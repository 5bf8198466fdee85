package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankctl/internal/models"
	"bankctl/internal/session"
)

func authedStore(t *testing.T, token string) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"), "")
	require.NoError(t, err)
	require.NoError(t, store.Set(models.Session{Username: "margaret", Role: models.RoleManager, Token: token}))
	return store
}

func TestBearerTokenAttached(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	store := authedStore(t, "tok-123")
	client := NewClient(srv.URL, store, nil)
	_, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", seen)
}

func TestNoTokenNoHeader(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestForbiddenForcesLogoutOnceAndErrorStillSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Forbidden"}`))
	}))
	defer srv.Close()

	store := authedStore(t, "tok-123")

	var logouts int
	store.Subscribe(func(username string, _ models.Role) {
		if username == "" {
			logouts++
		}
	})

	client := NewClient(srv.URL, store, nil)
	_, err := client.ListAccounts(context.Background())

	// The caller still sees the original failure.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	assert.Equal(t, 1, logouts)
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, SessionExpiredMessage, store.ConsumeLogoutMessage())
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := authedStore(t, "tok-123")
	client := NewClient(srv.URL, store, nil)
	_, err := client.ListAccounts(context.Background())

	require.Error(t, err)
	assert.False(t, store.IsAuthenticated())
}

func TestRejectedLoginDoesNotRecordExpiryNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	// No session yet: a failed login must not leave a stale "session
	// expired" message behind.
	client := newTestClient(t, srv.URL)
	_, err := client.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Empty(t, client.store.ConsumeLogoutMessage())
}

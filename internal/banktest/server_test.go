package banktest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankctl/internal/api"
	"bankctl/internal/models"
	"bankctl/internal/session"
)

func loggedInClient(t *testing.T, url, username, password string) *api.Client {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"), "")
	require.NoError(t, err)
	client := api.NewClient(url, store, nil)
	_, err = client.Login(context.Background(), models.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return client
}

func TestFullBankingFlow(t *testing.T) {
	ctx := context.Background()
	backend := New(Config{})
	backend.SeedManager("margaret", "manager-pass-1")
	srv := httptest.NewServer(backend)
	defer srv.Close()

	manager := loggedInClient(t, srv.URL, "margaret", "manager-pass-1")

	account, err := manager.CreateAccount(ctx, models.AccountRequest{Name: "Ada Lovelace", Balance: 100})
	require.NoError(t, err)
	require.NotEmpty(t, account.AccountNumber)

	clerk, err := manager.CreateClerk(ctx, models.CreateClerkRequest{Username: "colin", Password: "clerk-pass-12"})
	require.NoError(t, err)
	assert.True(t, clerk.Active)
	assert.Equal(t, models.RoleClerk, clerk.Role)

	clerkClient := loggedInClient(t, srv.URL, "colin", "clerk-pass-12")

	require.NoError(t, clerkClient.Deposit(ctx, models.TransactionRequest{AccountNumber: account.AccountNumber, Amount: 50}))
	got, err := clerkClient.GetAccount(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.InDelta(t, 150, got.Balance, 0.001)

	require.NoError(t, clerkClient.Withdraw(ctx, models.TransactionRequest{AccountNumber: account.AccountNumber, Amount: 70}))

	pending, err := manager.PendingTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "WITHDRAWAL", pending[0].TransactionType)
	assert.Equal(t, "colin", pending[0].PerformedBy)
	assert.Nil(t, pending[0].ApprovedBy)

	require.NoError(t, manager.ApproveTransaction(ctx, pending[0].TransactionID))

	got, err = manager.GetAccount(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.InDelta(t, 80, got.Balance, 0.001)

	txn, err := manager.GetTransaction(ctx, pending[0].TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", txn.Status)
	require.NotNil(t, txn.ApprovedBy)
	assert.Equal(t, "margaret", *txn.ApprovedBy)

	history, err := manager.AccountHistory(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestClerkRoleCannotAdministrate(t *testing.T) {
	backend := New(Config{})
	backend.SeedManager("margaret", "manager-pass-1")
	backend.SeedClerk("colin", "clerk-pass-12", true)
	srv := httptest.NewServer(backend)
	defer srv.Close()

	clerk := loggedInClient(t, srv.URL, "colin", "clerk-pass-12")

	_, err := clerk.ListClerks(context.Background())
	require.Error(t, err)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestDisabledClerkCannotLogIn(t *testing.T) {
	backend := New(Config{})
	backend.SeedClerk("colin", "clerk-pass-12", false)
	srv := httptest.NewServer(backend)
	defer srv.Close()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"), "")
	require.NoError(t, err)
	client := api.NewClient(srv.URL, store, nil)

	_, err = client.Login(context.Background(), models.LoginRequest{Username: "colin", Password: "clerk-pass-12"})
	require.Error(t, err)
	assert.Equal(t, "Account is disabled", api.ToUserMessage(err, "fallback"))
}

func TestClerkShapesNormalizeEndToEnd(t *testing.T) {
	shapes := []string{"active", "isActive", "enabled", "disabled", "status"}
	for _, shape := range shapes {
		t.Run(shape, func(t *testing.T) {
			backend := New(Config{ClerkShape: shape})
			backend.SeedManager("margaret", "manager-pass-1")
			backend.SeedClerk("colin", "clerk-pass-12", true)
			backend.SeedClerk("dora", "clerk-pass-34", false)
			srv := httptest.NewServer(backend)
			defer srv.Close()

			manager := loggedInClient(t, srv.URL, "margaret", "manager-pass-1")
			clerks, err := manager.ListClerks(context.Background())
			require.NoError(t, err)
			require.Len(t, clerks, 2)

			byName := map[string]models.ClerkUser{}
			for _, c := range clerks {
				byName[c.Username] = c
			}
			assert.True(t, byName["colin"].Active, "shape %s", shape)
			assert.False(t, byName["dora"].Active, "shape %s", shape)
		})
	}
}

func TestDisableRouteAnywhereInChain(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
	}{
		{"first candidate", http.MethodPut, "/users/clerks/{username}/disable"},
		{"singular patch", http.MethodPatch, "/users/clerk/{username}/disable"},
		{"status body", http.MethodPut, "/users/clerks/{username}/status"},
		{"destructive delete", http.MethodDelete, "/users/clerks/{username}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := New(Config{DisableMethod: tc.method, DisablePath: tc.path})
			backend.SeedManager("margaret", "manager-pass-1")
			backend.SeedClerk("colin", "clerk-pass-12", true)
			srv := httptest.NewServer(backend)
			defer srv.Close()

			manager := loggedInClient(t, srv.URL, "margaret", "manager-pass-1")
			require.NoError(t, manager.DisableClerk(context.Background(), "colin"))

			active, ok := backend.ClerkActive("colin")
			require.True(t, ok)
			assert.False(t, active)
		})
	}
}

func TestIdempotencyKeyReplaysCachedResponse(t *testing.T) {
	backend := New(Config{})
	backend.SeedManager("margaret", "manager-pass-1")
	account := backend.SeedAccount("Ada Lovelace", 100)
	srv := httptest.NewServer(backend)
	defer srv.Close()

	// Raw requests so the same key can be sent twice.
	var login models.LoginResponse
	body, _ := json.Marshal(models.LoginRequest{Username: "margaret", Password: "manager-pass-1"})
	resp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	deposit := func() *http.Response {
		payload, _ := json.Marshal(models.TransactionRequest{AccountNumber: account.AccountNumber, Amount: 25})
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/transactions/deposit", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+login.Token)
		req.Header.Set("Idempotency-Key", "fixed-key-1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	first := deposit()
	defer first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Empty(t, first.Header.Get("X-Idempotency-Hit"))

	second := deposit()
	defer second.Body.Close()
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("X-Idempotency-Hit"))

	// The balance moved exactly once.
	balance, ok := backend.Balance(account.AccountNumber)
	require.True(t, ok)
	assert.InDelta(t, 125, balance, 0.001)
}

func TestUnknownAccountIs404WithMessage(t *testing.T) {
	backend := New(Config{})
	backend.SeedManager("margaret", "manager-pass-1")
	srv := httptest.NewServer(backend)
	defer srv.Close()

	manager := loggedInClient(t, srv.URL, "margaret", "manager-pass-1")
	_, err := manager.GetAccount(context.Background(), "ACC-missing")
	require.Error(t, err)
	assert.Equal(t, "Account not found", api.ToUserMessage(err, "fallback"))
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	backend := New(Config{})
	srv := httptest.NewServer(backend)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

package ui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bankctl/internal/api"
	"bankctl/internal/banktest"
	"bankctl/internal/models"
	"bankctl/internal/session"
)

const (
	testManager     = "margaret"
	testManagerPass = "manager-pass-1"
	testClerk       = "colin"
	testClerkPass   = "clerk-pass-12"
)

// newBackend spins up a banktest server with a manager and clerk seeded and
// returns a logged-in client for the requested role.
func newBackend(t *testing.T, cfg banktest.Config, loginAs string) (*banktest.Server, *httptest.Server, *api.Client) {
	t.Helper()

	backend := banktest.New(cfg)
	backend.SeedManager(testManager, testManagerPass)
	backend.SeedClerk(testClerk, testClerkPass, true)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"), "")
	require.NoError(t, err)
	client := api.NewClient(srv.URL, store, nil)

	password := testManagerPass
	if loginAs == testClerk {
		password = testClerkPass
	}
	_, err = client.Login(context.Background(), models.LoginRequest{Username: loginAs, Password: password})
	require.NoError(t, err)

	return backend, srv, client
}

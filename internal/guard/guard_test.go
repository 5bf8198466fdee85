package guard

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankctl/internal/models"
	"bankctl/internal/session"
)

func storeWithRole(t *testing.T, role models.Role) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"), "")
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, store.Set(models.Session{Username: "someone", Role: role, Token: "tok"}))
	}
	return store
}

func TestUnauthenticatedGoesToLogin(t *testing.T) {
	store := storeWithRole(t, "")
	for _, route := range []Route{RouteDashboard, RouteManager, RouteClerk} {
		d := Check(store, route)
		assert.False(t, d.Allow, "route %s", route)
		assert.Equal(t, RouteLogin, d.RedirectTo, "route %s", route)
	}
}

func TestLoginIsAlwaysReachable(t *testing.T) {
	assert.True(t, Check(storeWithRole(t, ""), RouteLogin).Allow)
	assert.True(t, Check(storeWithRole(t, models.RoleClerk), RouteLogin).Allow)
}

func TestClerkDeniedManagerRoute(t *testing.T) {
	d := Check(storeWithRole(t, models.RoleClerk), RouteManager)
	assert.False(t, d.Allow)
	assert.Equal(t, RouteDashboard, d.RedirectTo)
}

func TestManagerAllowedManagerRoute(t *testing.T) {
	assert.True(t, Check(storeWithRole(t, models.RoleManager), RouteManager).Allow)
}

func TestManagerDeniedClerkRoute(t *testing.T) {
	d := Check(storeWithRole(t, models.RoleManager), RouteClerk)
	assert.False(t, d.Allow)
	assert.Equal(t, RouteDashboard, d.RedirectTo)
}

func TestDashboardNeedsOnlyAuthentication(t *testing.T) {
	assert.True(t, Check(storeWithRole(t, models.RoleClerk), RouteDashboard).Allow)
	assert.True(t, Check(storeWithRole(t, models.RoleManager), RouteDashboard).Allow)
}

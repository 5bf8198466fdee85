// Package guard gates navigation between pages. Checks are purely
// synchronous reads of session state; no network calls.
package guard

import "bankctl/internal/models"

type Route string

const (
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteManager   Route = "manager"
	RouteClerk     Route = "clerk"
)

// routeRoles declares the required role set per protected route. Routes
// absent from the map only require authentication.
var routeRoles = map[Route][]models.Role{
	RouteManager: {models.RoleManager},
	RouteClerk:   {models.RoleClerk},
}

// SessionState is the slice of the session store the guard reads.
type SessionState interface {
	IsAuthenticated() bool
	Role() (models.Role, bool)
}

// Decision is the outcome of a navigation check. RedirectTo is only
// meaningful when Allow is false.
type Decision struct {
	Allow      bool
	RedirectTo Route
}

// Check evaluates entry to a route: unauthenticated visitors go back to
// login, authenticated visitors lacking the required role land on the
// neutral dashboard, everyone else passes.
func Check(state SessionState, route Route) Decision {
	if route == RouteLogin {
		return Decision{Allow: true}
	}
	if !state.IsAuthenticated() {
		return Decision{Allow: false, RedirectTo: RouteLogin}
	}

	required, ok := routeRoles[route]
	if !ok {
		return Decision{Allow: true}
	}
	role, _ := state.Role()
	for _, r := range required {
		if r == role {
			return Decision{Allow: true}
		}
	}
	return Decision{Allow: false, RedirectTo: RouteDashboard}
}

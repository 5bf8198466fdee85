package ui

import (
	"context"
	"strings"

	"bankctl/internal/api"
	"bankctl/internal/models"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// Login validates credentials locally and drives the login call. Err holds
// the last failure message for rendering.
type Login struct {
	api *api.Client

	Err string
}

func NewLogin(client *api.Client) *Login {
	return &Login{api: client}
}

// Submit returns true once a session is established. Form constraints are
// checked before any network call.
func (l *Login) Submit(ctx context.Context, username, password string) bool {
	if len(strings.TrimSpace(username)) < minUsernameLen {
		l.Err = "Username must be at least 3 characters."
		return false
	}
	if len(password) < minPasswordLen {
		l.Err = "Password must be at least 8 characters."
		return false
	}

	l.Err = ""
	if _, err := l.api.Login(ctx, models.LoginRequest{Username: username, Password: password}); err != nil {
		l.Err = api.ToUserMessage(err, "Login failed. Please check credentials and try again.")
		return false
	}
	return true
}

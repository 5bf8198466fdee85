package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// DisableCandidate is one guess at the backend's clerk-disable contract:
// a verb, a path with a {username} placeholder, and an optional JSON body.
type DisableCandidate struct {
	Method string
	Path   string
	Body   map[string]any
}

// DefaultDisableCandidates is the ordered chain of plausible backend
// conventions: the disable sub-resource first (singular and plural resource
// paths), then status updates with an explicit inactive body, and a
// destructive delete as the last resort. The list is empirical; replace it
// with a single entry once the real contract is known.
var DefaultDisableCandidates = []DisableCandidate{
	{Method: http.MethodPut, Path: "/users/clerks/{username}/disable"},
	{Method: http.MethodPatch, Path: "/users/clerks/{username}/disable"},
	{Method: http.MethodPut, Path: "/users/clerk/{username}/disable"},
	{Method: http.MethodPatch, Path: "/users/clerk/{username}/disable"},
	{Method: http.MethodPost, Path: "/users/clerks/{username}/disable"},
	{Method: http.MethodPut, Path: "/users/clerks/{username}/status", Body: map[string]any{"active": false}},
	{Method: http.MethodPatch, Path: "/users/clerks/{username}/status", Body: map[string]any{"active": false}},
	{Method: http.MethodPut, Path: "/users/clerks/{username}/status", Body: map[string]any{"isActive": false}},
	{Method: http.MethodPut, Path: "/users/clerk/{username}/status", Body: map[string]any{"active": false}},
	{Method: http.MethodDelete, Path: "/users/clerks/{username}"},
	{Method: http.MethodDelete, Path: "/users/clerk/{username}"},
}

// DisableClerk disables a clerk by trying each candidate request in order
// until one succeeds. A 401 or 403 halts the chain immediately and is
// returned as-is: that is a real authorization failure, and retrying another
// route would only mask it. Every other failure advances to the next
// candidate; exhausting the list yields ErrNoDisableEndpoint. Each candidate
// is attempted at most once and never concurrently.
func (c *Client) DisableClerk(ctx context.Context, rawUsername string) error {
	username := strings.TrimSpace(rawUsername)
	if username == "" {
		return ErrEmptyUsername
	}
	escaped := url.PathEscape(username)

	candidates := c.DisableCandidates
	if len(candidates) == 0 {
		candidates = DefaultDisableCandidates
	}

	for i, cand := range candidates {
		path := strings.ReplaceAll(cand.Path, "{username}", escaped)

		var body any
		switch {
		case cand.Body != nil:
			body = cand.Body
		case cand.Method != http.MethodDelete:
			body = struct{}{}
		}

		err := c.do(ctx, cand.Method, path, body, nil, nil)
		if err == nil {
			c.logger.Info("clerk disabled",
				zap.String("username", username),
				zap.String("method", cand.Method),
				zap.String("path", path))
			return nil
		}
		if IsAuthStatus(err) {
			c.logger.Warn("clerk disable halted on authorization failure",
				zap.String("username", username),
				zap.Int("candidate", i+1),
				zap.Error(err))
			return err
		}
		c.logger.Debug("clerk disable candidate failed, advancing",
			zap.String("method", cand.Method),
			zap.String("path", path),
			zap.Error(err))
	}

	return fmt.Errorf("disable clerk %q: %w", username, ErrNoDisableEndpoint)
}

package api

import (
	"net/http"

	"go.uber.org/zap"

	"bankctl/internal/session"
)

// SessionExpiredMessage is the one-shot notice recorded when the backend
// rejects the current token.
const SessionExpiredMessage = "Session expired or unauthorized access detected."

// authTransport decorates every outgoing request with the bearer token and
// forces a logout when the backend answers 401/403. The response is always
// handed back to the caller unchanged so its own error handling still runs.
type authTransport struct {
	base   http.RoundTripper
	store  *session.Store
	logger *zap.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.store.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Only an established session gets torn down; a rejected login
		// attempt has nothing to clear.
		if t.store.IsAuthenticated() {
			t.logger.Warn("backend rejected credentials, clearing session",
				zap.Int("status", resp.StatusCode),
				zap.String("path", req.URL.Path))
			if clearErr := t.store.Clear(SessionExpiredMessage); clearErr != nil {
				t.logger.Error("failed to clear session", zap.Error(clearErr))
			}
		}
	}
	return resp, nil
}

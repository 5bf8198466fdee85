// Package api is the typed client for the banking backend. Every backend
// operation maps to one method issuing exactly one HTTP request, except
// DisableClerk which walks an ordered candidate chain (see disable.go).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankctl/internal/models"
	"bankctl/internal/session"
)

const defaultTimeout = 30 * time.Second

// idempotencyHeader carries a client-minted key on money-moving calls so a
// resent request cannot apply twice.
const idempotencyHeader = "Idempotency-Key"

type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	logger  *zap.Logger

	// DisableCandidates overrides the clerk-disable chain. Empty means
	// DefaultDisableCandidates. Collapse it to one entry once the real
	// backend contract is known.
	DisableCandidates []DisableCandidate
}

// NewClient builds a client against baseURL. The store supplies the bearer
// token on every request and absorbs forced logouts on 401/403.
func NewClient(baseURL string, store *session.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &authTransport{
				base:   http.DefaultTransport,
				store:  store,
				logger: logger,
			},
		},
		store:  store,
		logger: logger,
	}
}

// do issues one request and decodes a 2xx body into out when out is non-nil.
// Non-2xx responses become *APIError; transport failures are wrapped as-is.
func (c *Client) do(ctx context.Context, method, path string, body, out any, header http.Header) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates and, on success, persists the session through the
// store as a side effect.
func (c *Client) Login(ctx context.Context, creds models.LoginRequest) (models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out, nil); err != nil {
		return models.LoginResponse{}, err
	}
	if err := c.store.Set(models.Session{
		Username: out.Username,
		Role:     out.Role,
		Token:    out.Token,
	}); err != nil {
		return models.LoginResponse{}, fmt.Errorf("persist session: %w", err)
	}
	c.logger.Info("logged in",
		zap.String("username", out.Username),
		zap.String("role", string(out.Role)))
	return out, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	err := c.do(ctx, http.MethodGet, "/accounts", nil, &out, nil)
	return out, err
}

func (c *Client) GetAccount(ctx context.Context, accountNumber string) (models.Account, error) {
	var out models.Account
	err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountNumber), nil, &out, nil)
	return out, err
}

func (c *Client) CreateAccount(ctx context.Context, req models.AccountRequest) (models.Account, error) {
	var out models.Account
	err := c.do(ctx, http.MethodPost, "/accounts", req, &out, nil)
	return out, err
}

func (c *Client) UpdateAccount(ctx context.Context, accountNumber string, req models.AccountRequest) (models.Account, error) {
	var out models.Account
	err := c.do(ctx, http.MethodPut, "/accounts/"+url.PathEscape(accountNumber), req, &out, nil)
	return out, err
}

func (c *Client) DeleteAccount(ctx context.Context, accountNumber string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(accountNumber), nil, nil, nil)
}

func (c *Client) PendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/pending", nil, &out, nil)
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	var out models.Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(transactionID), nil, &out, nil)
	return out, err
}

func (c *Client) ApproveTransaction(ctx context.Context, transactionID string) error {
	return c.do(ctx, http.MethodPut, "/transactions/"+url.PathEscape(transactionID)+"/approve", struct{}{}, nil, nil)
}

func (c *Client) RejectTransaction(ctx context.Context, transactionID string) error {
	return c.do(ctx, http.MethodPut, "/transactions/"+url.PathEscape(transactionID)+"/reject", struct{}{}, nil, nil)
}

func (c *Client) AccountHistory(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/account/"+url.PathEscape(accountNumber)+"/history", nil, &out, nil)
	return out, err
}

func (c *Client) CreateClerk(ctx context.Context, req models.CreateClerkRequest) (models.ClerkUser, error) {
	var raw clerkPayload
	if err := c.do(ctx, http.MethodPost, "/users/clerk", req, &raw, nil); err != nil {
		return models.ClerkUser{}, err
	}
	return raw.canonical(), nil
}

func (c *Client) ListClerks(ctx context.Context) ([]models.ClerkUser, error) {
	var raw []clerkPayload
	if err := c.do(ctx, http.MethodGet, "/users/clerks", nil, &raw, nil); err != nil {
		return nil, err
	}
	clerks := make([]models.ClerkUser, 0, len(raw))
	for _, p := range raw {
		clerks = append(clerks, p.canonical())
	}
	return clerks, nil
}

func (c *Client) Deposit(ctx context.Context, req models.TransactionRequest) error {
	return c.do(ctx, http.MethodPut, "/transactions/deposit", req, nil, idempotent())
}

func (c *Client) Withdraw(ctx context.Context, req models.TransactionRequest) error {
	return c.do(ctx, http.MethodPut, "/transactions/withdraw", req, nil, idempotent())
}

func idempotent() http.Header {
	h := http.Header{}
	h.Set(idempotencyHeader, uuid.New().String())
	return h
}

package ui

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bankctl/internal/api"
	"bankctl/internal/models"
)

const minAccountNameLen = 2

// Manager is the manager workspace: administration of accounts, clerks, and
// pending withdrawals. After every successful mutation the dependent lists
// are re-fetched in full rather than patched, keeping the view consistent
// with the backend's authoritative state.
type Manager struct {
	api    *api.Client
	logger *zap.Logger

	// mu guards every field below. DisableClerk may run concurrently for
	// different clerks, so view state is only written under the lock.
	mu sync.Mutex

	// disabling tracks usernames with an outstanding disable chain so a
	// second request for the same clerk is suppressed locally.
	disabling map[string]bool

	Accounts []models.Account
	Clerks   []models.ClerkUser
	Pending  []models.Transaction
	History  []models.Transaction
	Lookup   *models.Transaction
	Err      string
	Success  string
}

func NewManager(client *api.Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:       client,
		logger:    logger,
		disabling: make(map[string]bool),
	}
}

// fail and succeed are the only writers of Err/Success; network calls never
// happen under the lock.
func (m *Manager) fail(err error, fallback string) {
	m.mu.Lock()
	m.Err = api.ToUserMessage(err, fallback)
	m.mu.Unlock()
}

func (m *Manager) failMsg(msg string) {
	m.mu.Lock()
	m.Err = msg
	m.mu.Unlock()
}

func (m *Manager) succeed(msg string) {
	m.mu.Lock()
	m.Success = msg
	m.Err = ""
	m.mu.Unlock()
}

// RefreshAll reloads accounts, clerks, and pending withdrawals together.
func (m *Manager) RefreshAll(ctx context.Context) {
	accounts, err := m.api.ListAccounts(ctx)
	if err != nil {
		m.fail(err, "Unable to load dashboard data.")
		return
	}
	clerks, err := m.api.ListClerks(ctx)
	if err != nil {
		m.fail(err, "Unable to load dashboard data.")
		return
	}
	pending, err := m.api.PendingTransactions(ctx)
	if err != nil {
		m.fail(err, "Unable to load dashboard data.")
		return
	}
	m.mu.Lock()
	m.Accounts = accounts
	m.Clerks = clerks
	m.Pending = pending
	m.Err = ""
	m.mu.Unlock()
}

func (m *Manager) CreateAccount(ctx context.Context, name string, balance float64) {
	if len(strings.TrimSpace(name)) < minAccountNameLen {
		m.failMsg("Account name must be at least 2 characters.")
		return
	}
	if balance < 0 {
		m.failMsg("Opening balance must not be negative.")
		return
	}
	req := models.AccountRequest{Name: strings.TrimSpace(name), Balance: balance}
	if _, err := m.api.CreateAccount(ctx, req); err != nil {
		m.fail(err, "Unable to create account.")
		return
	}
	m.succeed("Account created successfully.")
	m.RefreshAll(ctx)
}

func (m *Manager) UpdateAccount(ctx context.Context, accountNumber, name string, balance float64) {
	if strings.TrimSpace(accountNumber) == "" {
		m.failMsg("Account number is required.")
		return
	}
	if len(strings.TrimSpace(name)) < minAccountNameLen {
		m.failMsg("Account name must be at least 2 characters.")
		return
	}
	if balance < 0 {
		m.failMsg("Balance must not be negative.")
		return
	}
	req := models.AccountRequest{Name: strings.TrimSpace(name), Balance: balance}
	if _, err := m.api.UpdateAccount(ctx, strings.TrimSpace(accountNumber), req); err != nil {
		m.fail(err, "Unable to update account.")
		return
	}
	m.succeed("Account updated successfully.")
	m.RefreshAll(ctx)
}

func (m *Manager) DeleteAccount(ctx context.Context, accountNumber string) {
	if strings.TrimSpace(accountNumber) == "" {
		m.failMsg("Account number is required.")
		return
	}
	if err := m.api.DeleteAccount(ctx, strings.TrimSpace(accountNumber)); err != nil {
		m.fail(err, "Unable to delete account.")
		return
	}
	m.succeed("Account deleted successfully.")
	m.RefreshAll(ctx)
}

func (m *Manager) CreateClerk(ctx context.Context, username, password string) {
	if len(strings.TrimSpace(username)) < minUsernameLen {
		m.failMsg("Clerk username must be at least 3 characters.")
		return
	}
	if len(password) < minPasswordLen {
		m.failMsg("Clerk password must be at least 8 characters.")
		return
	}
	req := models.CreateClerkRequest{Username: strings.TrimSpace(username), Password: password}
	if _, err := m.api.CreateClerk(ctx, req); err != nil {
		m.fail(err, "Unable to create clerk.")
		return
	}
	m.succeed("Clerk created successfully.")
	m.RefreshAll(ctx)
}

// DisableClerk runs the disable fallback chain for username. While a chain
// for the same clerk (case-insensitive) is outstanding, further requests are
// suppressed so no duplicate chains go out.
func (m *Manager) DisableClerk(ctx context.Context, username string) {
	key := strings.ToLower(strings.TrimSpace(username))
	if key == "" {
		m.failMsg("Clerk username is required.")
		return
	}

	m.mu.Lock()
	if m.disabling[key] {
		m.Err = "A disable request for this clerk is already in progress."
		m.mu.Unlock()
		m.logger.Debug("duplicate disable suppressed", zap.String("username", key))
		return
	}
	m.disabling[key] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.disabling, key)
		m.mu.Unlock()
	}()

	if err := m.api.DisableClerk(ctx, username); err != nil {
		m.fail(err, "Unable to disable clerk.")
		return
	}
	m.succeed("Clerk disabled successfully.")
	m.RefreshAll(ctx)
}

func (m *Manager) Approve(ctx context.Context, transactionID string) {
	if err := m.api.ApproveTransaction(ctx, transactionID); err != nil {
		m.fail(err, "Unable to approve withdrawal.")
		return
	}
	m.succeed("Withdrawal approved.")
	m.RefreshAll(ctx)
}

func (m *Manager) Reject(ctx context.Context, transactionID string) {
	if err := m.api.RejectTransaction(ctx, transactionID); err != nil {
		m.fail(err, "Unable to reject withdrawal.")
		return
	}
	m.succeed("Withdrawal rejected.")
	m.RefreshAll(ctx)
}

func (m *Manager) LoadHistory(ctx context.Context, accountNumber string) {
	if strings.TrimSpace(accountNumber) == "" {
		m.failMsg("Account number is required.")
		return
	}
	history, err := m.api.AccountHistory(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		m.fail(err, "Unable to fetch transaction history.")
		return
	}
	m.mu.Lock()
	m.History = history
	m.Err = ""
	m.mu.Unlock()
}

func (m *Manager) LookupTransaction(ctx context.Context, transactionID string) {
	if strings.TrimSpace(transactionID) == "" {
		m.failMsg("Transaction id is required.")
		return
	}
	txn, err := m.api.GetTransaction(ctx, strings.TrimSpace(transactionID))
	if err != nil {
		m.fail(err, "Unable to fetch transaction.")
		return
	}
	m.mu.Lock()
	m.Lookup = &txn
	m.Err = ""
	m.mu.Unlock()
}

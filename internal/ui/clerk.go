package ui

import (
	"context"
	"strings"

	"bankctl/internal/api"
	"bankctl/internal/models"
)

// Minimum deposit/withdrawal the transaction form accepts.
const minTxnAmount = 0.01

// Clerk is the clerk workspace state: the loaded history plus the last
// success/error message. Each mutation validates locally first, so an
// invalid form never reaches the network.
type Clerk struct {
	api *api.Client

	History []models.Transaction
	Err     string
	Success string
}

func NewClerk(client *api.Client) *Clerk {
	return &Clerk{api: client}
}

func (c *Clerk) validTxn(accountNumber string, amount float64) bool {
	if strings.TrimSpace(accountNumber) == "" {
		c.Err = "Account number is required."
		return false
	}
	if amount < minTxnAmount {
		c.Err = "Amount must be at least 0.01."
		return false
	}
	return true
}

func (c *Clerk) Deposit(ctx context.Context, accountNumber string, amount float64) {
	if !c.validTxn(accountNumber, amount) {
		return
	}
	req := models.TransactionRequest{AccountNumber: strings.TrimSpace(accountNumber), Amount: amount}
	if err := c.api.Deposit(ctx, req); err != nil {
		c.Err = api.ToUserMessage(err, "Deposit failed. Check details and try again.")
		return
	}
	c.Success = "Deposit completed successfully."
	c.Err = ""
}

func (c *Clerk) Withdraw(ctx context.Context, accountNumber string, amount float64) {
	if !c.validTxn(accountNumber, amount) {
		return
	}
	req := models.TransactionRequest{AccountNumber: strings.TrimSpace(accountNumber), Amount: amount}
	if err := c.api.Withdraw(ctx, req); err != nil {
		c.Err = api.ToUserMessage(err, "Withdrawal failed. Please verify balance and account.")
		return
	}
	c.Success = "Withdrawal request submitted. Approval may be required."
	c.Err = ""
}

func (c *Clerk) LoadHistory(ctx context.Context, accountNumber string) {
	if strings.TrimSpace(accountNumber) == "" {
		c.Err = "Account number is required."
		return
	}
	history, err := c.api.AccountHistory(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		c.Err = api.ToUserMessage(err, "Unable to fetch transaction history.")
		return
	}
	c.History = history
	c.Err = ""
}

// Package ui drives the line-oriented terminal front-end: one page per
// route, a guard check before every navigation, and thin controllers that
// validate forms locally before touching the network.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"bankctl/internal/api"
	"bankctl/internal/guard"
	"bankctl/internal/models"
	"bankctl/internal/session"
)

// App owns the navigation loop. Pages return the next route; an empty route
// means the user asked to quit.
type App struct {
	store  *session.Store
	client *api.Client
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

func NewApp(store *session.Store, client *api.Client, in io.Reader, out io.Writer, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		store:  store,
		client: client,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// Run loops until quit or end of input. Every route entry passes through the
// guard; denied entries follow the guard's redirect.
func (a *App) Run(ctx context.Context) error {
	route := guard.RouteDashboard
	for {
		if d := guard.Check(a.store, route); !d.Allow {
			route = d.RedirectTo
			continue
		}

		var next guard.Route
		switch route {
		case guard.RouteLogin:
			next = a.loginPage(ctx)
		case guard.RouteDashboard:
			next = a.dashboardPage()
		case guard.RouteManager:
			next = a.managerPage(ctx)
		case guard.RouteClerk:
			next = a.clerkPage(ctx)
		default:
			next = guard.RouteLogin
		}
		if next == "" {
			return nil
		}
		route = next
	}
}

func (a *App) loginPage(ctx context.Context) guard.Route {
	if msg := a.store.ConsumeLogoutMessage(); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	fmt.Fprintln(a.out, "== Sign in ==")

	ctrl := NewLogin(a.client)
	for {
		username, ok := a.prompt("Username: ")
		if !ok {
			return ""
		}
		password, ok := a.prompt("Password: ")
		if !ok {
			return ""
		}
		if ctrl.Submit(ctx, username, password) {
			return guard.RouteDashboard
		}
		fmt.Fprintln(a.out, ctrl.Err)
	}
}

func (a *App) dashboardPage() guard.Route {
	role, _ := a.store.Role()
	if role == models.RoleManager {
		fmt.Fprintln(a.out, "Redirecting to the manager workspace...")
		return guard.RouteManager
	}
	fmt.Fprintln(a.out, "Redirecting to the clerk workspace...")
	return guard.RouteClerk
}

func (a *App) clerkPage(ctx context.Context) guard.Route {
	a.banner("Clerk workspace")
	ctrl := NewClerk(a.client)
	fmt.Fprintln(a.out, "commands: deposit | withdraw | history | logout | quit")

	for {
		cmd, ok := a.prompt("clerk> ")
		if !ok {
			return ""
		}
		switch cmd {
		case "deposit", "withdraw":
			account, ok := a.prompt("Account number: ")
			if !ok {
				return ""
			}
			amount, ok := a.promptAmount("Amount: ")
			if !ok {
				return ""
			}
			if cmd == "deposit" {
				ctrl.Deposit(ctx, account, amount)
			} else {
				ctrl.Withdraw(ctx, account, amount)
			}
			a.report(ctrl.Err, ctrl.Success)
		case "history":
			account, ok := a.prompt("Account number: ")
			if !ok {
				return ""
			}
			ctrl.LoadHistory(ctx, account)
			if ctrl.Err != "" {
				fmt.Fprintln(a.out, ctrl.Err)
				continue
			}
			a.printTransactions(ctrl.History)
		case "logout":
			return a.logout()
		case "quit", "exit":
			return ""
		case "":
		default:
			fmt.Fprintln(a.out, "commands: deposit | withdraw | history | logout | quit")
		}
	}
}

func (a *App) managerPage(ctx context.Context) guard.Route {
	a.banner("Manager workspace")
	ctrl := NewManager(a.client, a.logger)
	ctrl.RefreshAll(ctx)
	if ctrl.Err != "" {
		fmt.Fprintln(a.out, ctrl.Err)
	} else {
		fmt.Fprintf(a.out, "%d accounts, %d clerks, %d pending withdrawals\n",
			len(ctrl.Accounts), len(ctrl.Clerks), len(ctrl.Pending))
	}
	fmt.Fprintln(a.out, "commands: refresh | accounts | clerks | pending | history | txn |")
	fmt.Fprintln(a.out, "          create-account | update-account | delete-account |")
	fmt.Fprintln(a.out, "          create-clerk | disable-clerk | approve | reject | logout | quit")

	for {
		cmd, ok := a.prompt("manager> ")
		if !ok {
			return ""
		}
		switch cmd {
		case "refresh":
			ctrl.RefreshAll(ctx)
			if ctrl.Err != "" {
				fmt.Fprintln(a.out, ctrl.Err)
				continue
			}
			fmt.Fprintf(a.out, "%d accounts, %d clerks, %d pending withdrawals\n",
				len(ctrl.Accounts), len(ctrl.Clerks), len(ctrl.Pending))
		case "accounts":
			a.printAccounts(ctrl.Accounts)
		case "clerks":
			a.printClerks(ctrl.Clerks)
		case "pending":
			a.printTransactions(ctrl.Pending)
		case "history":
			account, ok := a.prompt("Account number: ")
			if !ok {
				return ""
			}
			ctrl.LoadHistory(ctx, account)
			if ctrl.Err != "" {
				fmt.Fprintln(a.out, ctrl.Err)
				continue
			}
			a.printTransactions(ctrl.History)
		case "txn":
			id, ok := a.prompt("Transaction id: ")
			if !ok {
				return ""
			}
			ctrl.LookupTransaction(ctx, id)
			if ctrl.Err != "" {
				fmt.Fprintln(a.out, ctrl.Err)
				continue
			}
			a.printTransactions([]models.Transaction{*ctrl.Lookup})
		case "create-account":
			name, ok := a.prompt("Account holder name: ")
			if !ok {
				return ""
			}
			balance, ok := a.promptAmount("Opening balance: ")
			if !ok {
				return ""
			}
			ctrl.CreateAccount(ctx, name, balance)
			a.report(ctrl.Err, ctrl.Success)
		case "update-account":
			account, ok := a.prompt("Account number: ")
			if !ok {
				return ""
			}
			name, ok := a.prompt("Account holder name: ")
			if !ok {
				return ""
			}
			balance, ok := a.promptAmount("Balance: ")
			if !ok {
				return ""
			}
			ctrl.UpdateAccount(ctx, account, name, balance)
			a.report(ctrl.Err, ctrl.Success)
		case "delete-account":
			account, ok := a.prompt("Account number: ")
			if !ok {
				return ""
			}
			ctrl.DeleteAccount(ctx, account)
			a.report(ctrl.Err, ctrl.Success)
		case "create-clerk":
			username, ok := a.prompt("Clerk username: ")
			if !ok {
				return ""
			}
			password, ok := a.prompt("Clerk password: ")
			if !ok {
				return ""
			}
			ctrl.CreateClerk(ctx, username, password)
			a.report(ctrl.Err, ctrl.Success)
		case "disable-clerk":
			username, ok := a.prompt("Clerk username: ")
			if !ok {
				return ""
			}
			ctrl.DisableClerk(ctx, username)
			a.report(ctrl.Err, ctrl.Success)
		case "approve", "reject":
			id, ok := a.prompt("Transaction id: ")
			if !ok {
				return ""
			}
			if cmd == "approve" {
				ctrl.Approve(ctx, id)
			} else {
				ctrl.Reject(ctx, id)
			}
			a.report(ctrl.Err, ctrl.Success)
		case "logout":
			return a.logout()
		case "quit", "exit":
			return ""
		case "":
		default:
			fmt.Fprintln(a.out, "unknown command; try refresh, accounts, clerks, pending, or logout")
		}
	}
}

func (a *App) logout() guard.Route {
	if err := a.store.Clear("You have been logged out successfully."); err != nil {
		a.logger.Error("failed to clear session", zap.Error(err))
	}
	return guard.RouteLogin
}

func (a *App) banner(title string) {
	sess, ok := a.store.Current()
	if !ok {
		fmt.Fprintf(a.out, "== %s ==\n", title)
		return
	}
	line := fmt.Sprintf("== %s: %s (%s)", title, sess.Username, sess.Role)
	if exp, ok := api.TokenExpiry(sess.Token); ok {
		line += fmt.Sprintf(", session expires %s", exp.Local().Format(time.Kitchen))
	}
	fmt.Fprintln(a.out, line+" ==")
}

// prompt reads one trimmed line; ok is false at end of input.
func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// promptAmount re-prompts until the input parses as a number.
func (a *App) promptAmount(label string) (float64, bool) {
	for {
		raw, ok := a.prompt(label)
		if !ok {
			return 0, false
		}
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Fprintln(a.out, "Enter a numeric amount, e.g. 125.50")
			continue
		}
		return amount, true
	}
}

func (a *App) report(errMsg, success string) {
	if errMsg != "" {
		fmt.Fprintln(a.out, errMsg)
		return
	}
	fmt.Fprintln(a.out, success)
}

func (a *App) printAccounts(accounts []models.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "no accounts")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tNAME\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", acc.AccountNumber, acc.Name, acc.Balance)
	}
	w.Flush()
}

func (a *App) printClerks(clerks []models.ClerkUser) {
	if len(clerks) == 0 {
		fmt.Fprintln(a.out, "no clerks")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tACTIVE")
	for _, clerk := range clerks {
		fmt.Fprintf(w, "%s\t%s\t%t\n", clerk.Username, clerk.Role, clerk.Active)
	}
	w.Flush()
}

func (a *App) printTransactions(txns []models.Transaction) {
	if len(txns) == 0 {
		fmt.Fprintln(a.out, "no transactions")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACCOUNT\tTYPE\tAMOUNT\tSTATUS\tBY\tAPPROVED BY")
	for _, t := range txns {
		approvedBy := "-"
		if t.ApprovedBy != nil {
			approvedBy = *t.ApprovedBy
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
			t.TransactionID, t.AccountNumber, t.TransactionType, t.Amount, t.Status, t.PerformedBy, approvedBy)
	}
	w.Flush()
}

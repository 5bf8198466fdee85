package banktest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"bankctl/internal/models"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, claims *authClaims)

// auth validates the bearer token and hands the claims to the handler.
func (s *Server) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSON(w, http.StatusUnauthorized, errBody("Missing bearer token"))
			return
		}
		claims, err := s.parseToken(parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errBody("Invalid or expired token"))
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) managerOnly(next authedHandler) http.HandlerFunc {
	return s.auth(func(w http.ResponseWriter, r *http.Request, claims *authClaims) {
		if claims.Role != string(models.RoleManager) {
			writeJSON(w, http.StatusForbidden, errBody("Manager role required"))
			return
		}
		next(w, r, claims)
	})
}

// idempotent replays a cached response when the same Idempotency-Key comes
// back, so a resent deposit or withdrawal cannot apply twice.
func (s *Server) idempotent(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, claims *authClaims) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next(w, r, claims)
			return
		}

		s.mu.Lock()
		cached, hit := s.idem[key]
		s.mu.Unlock()
		if hit {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Hit", "true")
			w.WriteHeader(cached.status)
			w.Write(cached.body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, claims)

		if rec.status >= 200 && rec.status < 300 {
			s.mu.Lock()
			s.idem[key] = idemRecord{status: rec.status, body: rec.body.Bytes()}
			s.mu.Unlock()
		}
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed login request"))
		return
	}

	s.mu.Lock()
	u, ok := s.users[creds.Username]
	s.mu.Unlock()
	if !ok || u.Password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, errBody("Invalid credentials"))
		return
	}
	if !u.Active {
		writeJSON(w, http.StatusUnauthorized, errBody("Account is disabled"))
		return
	}

	token, err := s.signToken(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody("Could not issue token"))
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, Username: u.Username, Role: u.Role})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	s.mu.Lock()
	accounts := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accounts = append(accounts, *acc)
	}
	s.mu.Unlock()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNumber < accounts[j].AccountNumber })
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	s.mu.Lock()
	acc, ok := s.accounts[mux.Vars(r)["accountNumber"]]
	var out models.Account
	if ok {
		out = *acc
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	var req models.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed account request"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errBody("Account name is required"))
		return
	}
	if req.Balance < 0 {
		writeJSON(w, http.StatusBadRequest, errBody("Balance must not be negative"))
		return
	}

	acc := &models.Account{AccountNumber: newID("ACC"), Name: strings.TrimSpace(req.Name), Balance: req.Balance}
	s.mu.Lock()
	s.accounts[acc.AccountNumber] = acc
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, *acc)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	var req models.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed account request"))
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[mux.Vars(r)["accountNumber"]]
	if ok {
		acc.Name = req.Name
		acc.Balance = req.Balance
	}
	var out models.Account
	if ok {
		out = *acc
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	accountNumber := mux.Vars(r)["accountNumber"]
	s.mu.Lock()
	_, ok := s.accounts[accountNumber]
	delete(s.accounts, accountNumber)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed transaction request"))
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errBody("Amount must be positive"))
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.AccountNumber]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	acc.Balance += req.Amount
	txn := s.newTxnLocked(req, "DEPOSIT", "APPROVED", claims.Username)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, txn)
}

// handleWithdraw only records a pending transaction; funds move when a
// manager approves it.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed transaction request"))
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errBody("Amount must be positive"))
		return
	}

	s.mu.Lock()
	_, ok := s.accounts[req.AccountNumber]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	txn := s.newTxnLocked(req, "WITHDRAWAL", "PENDING", claims.Username)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	s.mu.Lock()
	pending := make([]models.Transaction, 0)
	for _, txn := range s.txns {
		if txn.Status == "PENDING" {
			pending = append(pending, *txn)
		}
	}
	s.mu.Unlock()
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt < pending[j].CreatedAt })
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	accountNumber := mux.Vars(r)["accountNumber"]
	s.mu.Lock()
	history := make([]models.Transaction, 0)
	for _, txn := range s.txns {
		if txn.AccountNumber == accountNumber {
			history = append(history, *txn)
		}
	}
	s.mu.Unlock()
	sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt < history[j].CreatedAt })
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	s.mu.Lock()
	txn, ok := s.txns[mux.Vars(r)["transactionId"]]
	var out models.Transaction
	if ok {
		out = *txn
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Transaction not found"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[mux.Vars(r)["transactionId"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Transaction not found"))
		return
	}
	if txn.Status != "PENDING" {
		writeJSON(w, http.StatusConflict, errBody("Transaction is not pending"))
		return
	}
	acc, ok := s.accounts[txn.AccountNumber]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Account not found"))
		return
	}
	if acc.Balance < txn.Amount {
		writeJSON(w, http.StatusConflict, errBody("Insufficient funds"))
		return
	}

	acc.Balance -= txn.Amount
	txn.Status = "APPROVED"
	approver := claims.Username
	txn.ApprovedBy = &approver
	writeJSON(w, http.StatusOK, *txn)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, claims *authClaims) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[mux.Vars(r)["transactionId"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("Transaction not found"))
		return
	}
	if txn.Status != "PENDING" {
		writeJSON(w, http.StatusConflict, errBody("Transaction is not pending"))
		return
	}

	txn.Status = "REJECTED"
	approver := claims.Username
	txn.ApprovedBy = &approver
	writeJSON(w, http.StatusOK, *txn)
}

func (s *Server) handleCreateClerk(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	var req models.CreateClerkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Malformed clerk request"))
		return
	}
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 {
		writeJSON(w, http.StatusBadRequest, errBody("Username must be at least 3 characters"))
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, errBody("Password must be at least 8 characters"))
		return
	}

	s.mu.Lock()
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, errBody("Username already exists"))
		return
	}
	u := &user{Username: username, Password: req.Password, Role: models.RoleClerk, Active: true}
	s.users[username] = u
	out := s.renderClerk(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListClerks(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	s.mu.Lock()
	clerks := make([]map[string]any, 0)
	usernames := make([]string, 0, len(s.users))
	for name, u := range s.users {
		if u.Role == models.RoleClerk {
			usernames = append(usernames, name)
		}
	}
	sort.Strings(usernames)
	for _, name := range usernames {
		clerks = append(clerks, s.renderClerk(s.users[name]))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, clerks)
}

func (s *Server) handleDisableClerk(w http.ResponseWriter, r *http.Request, _ *authClaims) {
	if s.cfg.DisableDelay > 0 {
		time.Sleep(s.cfg.DisableDelay)
	}

	username := mux.Vars(r)["username"]
	if unescaped, err := url.PathUnescape(username); err == nil {
		username = unescaped
	}

	s.mu.Lock()
	u, ok := s.users[username]
	if ok && u.Role == models.RoleClerk {
		u.Active = false
	}
	s.mu.Unlock()

	if !ok || u.Role != models.RoleClerk {
		writeJSON(w, http.StatusNotFound, errBody("Clerk not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Clerk disabled"})
}

// renderClerk emits a clerk in whichever shape the server is configured to
// speak; callers hold s.mu.
func (s *Server) renderClerk(u *user) map[string]any {
	out := map[string]any{"username": u.Username, "role": string(u.Role)}
	switch s.cfg.ClerkShape {
	case "active":
		out["active"] = u.Active
	case "enabled":
		out["enabled"] = u.Active
	case "disabled":
		out["disabled"] = !u.Active
	case "status":
		if u.Active {
			out["status"] = "ACTIVE"
		} else {
			out["status"] = "DISABLED"
		}
	default:
		out["isActive"] = u.Active
	}
	return out
}

// newTxnLocked records a transaction; callers hold s.mu. The backend mints
// every transaction id.
func (s *Server) newTxnLocked(req models.TransactionRequest, txnType, status, performedBy string) models.Transaction {
	txn := &models.Transaction{
		TransactionID:   newID("TXN"),
		AccountNumber:   req.AccountNumber,
		TransactionType: txnType,
		Amount:          req.Amount,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		Status:          status,
		PerformedBy:     performedBy,
	}
	s.txns[txn.TransactionID] = txn
	return *txn
}

func newID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func errBody(message string) map[string]string {
	return map[string]string{"message": message}
}

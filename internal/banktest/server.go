// Package banktest is an in-memory bank backend covering the full REST
// surface the client consumes. Tests point an api.Client at it; cmd/bankd
// serves it as a local development stub. State lives in maps behind one
// mutex and is gone when the process exits.
package banktest

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"bankctl/internal/models"
)

const tokenTTL = time.Hour

// Config controls the parts of the backend contract that are deliberately
// unstable: how clerk payloads are shaped and which disable route exists.
type Config struct {
	// JWTSecret signs login tokens. Defaults to a dev-only value.
	JWTSecret string

	// ClerkShape picks the field carrying clerk enablement in responses:
	// "active", "isActive", "enabled", "disabled", or "status".
	ClerkShape string

	// DisableMethod and DisablePath place the one working disable endpoint
	// anywhere in the client's candidate chain. DisablePath is a mux pattern
	// containing {username}.
	DisableMethod string
	DisablePath   string

	// DisableDelay holds every disable request open, for exercising the
	// client-side concurrent-disable guard.
	DisableDelay time.Duration
}

type user struct {
	Username string
	Password string
	Role     models.Role
	Active   bool
}

type idemRecord struct {
	status int
	body   []byte
}

type Server struct {
	cfg    Config
	router *mux.Router

	mu       sync.Mutex
	users    map[string]*user
	accounts map[string]*models.Account
	txns     map[string]*models.Transaction
	idem     map[string]idemRecord
}

func New(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "bankd-dev-secret"
	}
	if cfg.ClerkShape == "" {
		cfg.ClerkShape = "isActive"
	}
	if cfg.DisableMethod == "" {
		cfg.DisableMethod = http.MethodPut
	}
	if cfg.DisablePath == "" {
		cfg.DisablePath = "/users/clerks/{username}/disable"
	}

	s := &Server{
		cfg:      cfg,
		users:    make(map[string]*user),
		accounts: make(map[string]*models.Account),
		txns:     make(map[string]*models.Transaction),
		idem:     make(map[string]idemRecord),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/accounts", s.auth(s.handleListAccounts)).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.managerOnly(s.handleCreateAccount)).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{accountNumber}", s.auth(s.handleGetAccount)).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{accountNumber}", s.managerOnly(s.handleUpdateAccount)).Methods(http.MethodPut)
	r.HandleFunc("/accounts/{accountNumber}", s.managerOnly(s.handleDeleteAccount)).Methods(http.MethodDelete)

	r.HandleFunc("/transactions/deposit", s.auth(s.idempotent(s.handleDeposit))).Methods(http.MethodPut)
	r.HandleFunc("/transactions/withdraw", s.auth(s.idempotent(s.handleWithdraw))).Methods(http.MethodPut)
	r.HandleFunc("/transactions/pending", s.managerOnly(s.handlePending)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/account/{accountNumber}/history", s.auth(s.handleHistory)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{transactionId}", s.auth(s.handleGetTransaction)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{transactionId}/approve", s.managerOnly(s.handleApprove)).Methods(http.MethodPut)
	r.HandleFunc("/transactions/{transactionId}/reject", s.managerOnly(s.handleReject)).Methods(http.MethodPut)

	r.HandleFunc("/users/clerk", s.managerOnly(s.handleCreateClerk)).Methods(http.MethodPost)
	r.HandleFunc("/users/clerks", s.managerOnly(s.handleListClerks)).Methods(http.MethodGet)
	r.HandleFunc(s.cfg.DisablePath, s.managerOnly(s.handleDisableClerk)).Methods(s.cfg.DisableMethod)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedManager registers a manager account.
func (s *Server) SeedManager(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &user{Username: username, Password: password, Role: models.RoleManager, Active: true}
}

// SeedClerk registers a clerk account in the given enablement state.
func (s *Server) SeedClerk(username, password string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &user{Username: username, Password: password, Role: models.RoleClerk, Active: active}
}

// SeedAccount creates a bank account and returns it, accountNumber included.
func (s *Server) SeedAccount(name string, balance float64) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &models.Account{AccountNumber: newID("ACC"), Name: name, Balance: balance}
	s.accounts[acc.AccountNumber] = acc
	return *acc
}

// ClerkActive reports a clerk's enablement, for assertions.
func (s *Server) ClerkActive(username string) (active, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[username]
	if !found || u.Role != models.RoleClerk {
		return false, false
	}
	return u.Active, true
}

// Balance reports an account balance, for assertions.
func (s *Server) Balance(accountNumber string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountNumber]
	if !ok {
		return 0, false
	}
	return acc.Balance, true
}

type authClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) signToken(u *user) (string, error) {
	claims := &authClaims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(tokenString string) (*authClaims, error) {
	claims := &authClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

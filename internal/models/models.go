package models

// Role identifies what a logged-in user is allowed to do.
type Role string

const (
	RoleManager Role = "MANAGER"
	RoleClerk   Role = "CLERK"
)

// Session is the client-held record of the authenticated user. The backend
// issues the token; the client only stores and forwards it.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Account is a read-through copy of backend state. AccountNumber is assigned
// by the backend, never by this client.
type Account struct {
	AccountNumber string  `json:"accountNumber"`
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
}

type AccountRequest struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// ClerkUser is the canonical client-side view of a clerk. Active is derived
// from whichever representation the backend happened to send.
type ClerkUser struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
}

type CreateClerkRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Transaction is immutable once fetched; status transitions happen
// server-side and are observed by re-fetching.
type Transaction struct {
	TransactionID   string  `json:"transactionId"`
	AccountNumber   string  `json:"accountNumber"`
	TransactionType string  `json:"transactionType"`
	Amount          float64 `json:"amount"`
	CreatedAt       string  `json:"createdAt"`
	Status          string  `json:"status"`
	PerformedBy     string  `json:"performedBy"`
	ApprovedBy      *string `json:"approvedBy"`
}

type TransactionRequest struct {
	AccountNumber string  `json:"accountNumber"`
	Amount        float64 `json:"amount"`
}

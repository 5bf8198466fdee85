package api

import (
	"strings"

	"bankctl/internal/models"
)

// clerkPayload is the clerk shape as the backend actually sends it. Whether a
// clerk is enabled may arrive under any of several fields, so all of them are
// decoded and reconciled into one canonical flag.
type clerkPayload struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Active   *bool       `json:"active"`
	IsActive *bool       `json:"isActive"`
	Enabled  *bool       `json:"enabled"`
	Disabled *bool       `json:"disabled"`
	Status   string      `json:"status"`
}

// Status strings that mean the clerk cannot log in, compared case-insensitively.
var inactiveStatuses = map[string]bool{
	"disabled":  true,
	"inactive":  true,
	"blocked":   true,
	"suspended": true,
	"locked":    true,
}

// canonical derives the single active flag. Precedence, first non-absent
// wins: active, isActive, enabled, inverted disabled, then the status string.
// A clerk with none of them present is treated as inactive.
func (p clerkPayload) canonical() models.ClerkUser {
	role := p.Role
	if role == "" {
		role = models.RoleClerk
	}
	return models.ClerkUser{
		Username: p.Username,
		Role:     role,
		Active:   p.activeFlag(),
	}
}

func (p clerkPayload) activeFlag() bool {
	switch {
	case p.Active != nil:
		return *p.Active
	case p.IsActive != nil:
		return *p.IsActive
	case p.Enabled != nil:
		return *p.Enabled
	case p.Disabled != nil:
		return !*p.Disabled
	case p.Status != "":
		return !inactiveStatuses[strings.ToLower(p.Status)]
	}
	return false
}

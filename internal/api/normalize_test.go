package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankctl/internal/models"
)

func TestCanonicalActiveFlag(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"explicit active true", `{"active":true}`, true},
		{"explicit active false", `{"active":false}`, false},
		{"isActive false", `{"isActive":false}`, false},
		{"isActive true", `{"isActive":true}`, true},
		{"enabled true", `{"enabled":true}`, true},
		{"enabled false", `{"enabled":false}`, false},
		{"inverted disabled", `{"disabled":true}`, false},
		{"inverted disabled false", `{"disabled":false}`, true},
		{"status DISABLED", `{"status":"DISABLED"}`, false},
		{"status inactive", `{"status":"inactive"}`, false},
		{"status Blocked", `{"status":"Blocked"}`, false},
		{"status suspended", `{"status":"suspended"}`, false},
		{"status active", `{"status":"active"}`, true},
		{"status unknown keyword", `{"status":"PROBATION"}`, true},
		{"nothing present", `{}`, false},
		{"active wins over status", `{"active":true,"status":"DISABLED"}`, true},
		{"active wins over isActive", `{"active":false,"isActive":true}`, false},
		{"isActive wins over enabled", `{"isActive":true,"enabled":false}`, true},
		{"enabled wins over disabled", `{"enabled":false,"disabled":false}`, false},
		{"disabled wins over status", `{"disabled":false,"status":"DISABLED"}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var payload clerkPayload
			require.NoError(t, json.Unmarshal([]byte(tc.body), &payload))
			assert.Equal(t, tc.want, payload.activeFlag())
		})
	}
}

func TestCanonicalClerkDefaultsRole(t *testing.T) {
	var payload clerkPayload
	require.NoError(t, json.Unmarshal([]byte(`{"username":"colin","active":true}`), &payload))

	clerk := payload.canonical()
	assert.Equal(t, "colin", clerk.Username)
	assert.Equal(t, models.RoleClerk, clerk.Role)
	assert.True(t, clerk.Active)
}

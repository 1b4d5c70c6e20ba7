package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rolePayload struct {
	Role string `json:"role" validate:"is-user-role"`
}

type statusPayload struct {
	Status string `json:"status" validate:"is-enquiry-status"`
}

func TestUserRoleRule(t *testing.T) {
	v := New()

	for _, role := range []string{"customer", "technician", "admin", ""} {
		assert.NoError(t, v.Validate(&rolePayload{Role: role}), "role %q", role)
	}

	err := v.Validate(&rolePayload{Role: "superuser"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "role")
	assert.Equal(t, "Must be a valid user role", vErr.Errors["role"])
}

func TestEnquiryStatusRule(t *testing.T) {
	v := New()

	// Historical casings normalize; an empty filter is left to 'required'.
	for _, status := range []string{"pending", "Pending", "IN_PROCESS", "completed", "dropped", ""} {
		assert.NoError(t, v.Validate(&statusPayload{Status: status}), "status %q", status)
	}

	err := v.Validate(&statusPayload{Status: "archived"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "status")
}

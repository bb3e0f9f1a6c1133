package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_CanAccess(t *testing.T) {
	const (
		self  = "2c9f4a1e-5b7d-4d1a-9a57-0c0b6f7e9a11"
		other = "a0e1d5b2-1f3c-4e8a-8b2d-3c4e5f6a7b8c"
	)
	tests := []struct {
		name string
		p    Principal
		id   string
		want bool
	}{
		{name: "admin reads anyone", p: Principal{ID: self, Role: RoleAdmin}, id: other, want: true},
		{name: "teacher reads anyone", p: Principal{ID: self, Role: RoleTeacher}, id: other, want: true},
		{name: "student reads self", p: Principal{ID: self, Role: RoleStudent}, id: self, want: true},
		{name: "student reads other", p: Principal{ID: self, Role: RoleStudent}, id: other},
		{name: "anonymous", p: Principal{Role: RoleStudent}, id: ""},
		{name: "unknown role", p: Principal{ID: self, Role: "janitor"}, id: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.CanAccess(tt.id))
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, IsValidRole(role), role)
	}
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}

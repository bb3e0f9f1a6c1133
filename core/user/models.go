package user

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	// ElevatedRoles may read any user's data.
	ElevatedRoles = []string{RoleAdmin, RoleTeacher}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller resolved from a bearer credential.
// Users are managed elsewhere; only their ID and role travel with a request.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }

func (p Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// CanAccess reports whether p may read the data owned by userID: elevated roles read everyone's,
// anybody else only their own.
func (p Principal) CanAccess(userID string) bool {
	return p.HasAnyRole(ElevatedRoles...) || (p.ID != "" && p.ID == userID)
}

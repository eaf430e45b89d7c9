package review

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RolePM       Role = "pm"
	RoleCreative Role = "creative"
	RoleReviewer Role = "reviewer"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RolePM, RoleCreative, RoleReviewer:
		return r, true
	case "project_manager":
		return RolePM, true
	case "client":
		return RoleReviewer, true
	default:
		return "", false
	}
}

// Actor is the acting user. Role and memberships come pre-validated from the caller.
type Actor struct {
	UserID     uuid.UUID   `json:"user_id"`
	Role       Role        `json:"role"`
	ProjectIDs []uuid.UUID `json:"project_ids,omitempty"`
}

func (a Actor) MemberOf(projectID uuid.UUID) bool {
	for _, id := range a.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

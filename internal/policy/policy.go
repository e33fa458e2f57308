// Package policy maps roles to capabilities and task fetch strategies.
// Everything here is pure: no state, no I/O. The API enforces the real
// authorization; these rules only decide what the client offers.
package policy

import "github.com/riordanpawley/tandem/internal/domain"

// Strategy selects how a caller's task list is fetched
type Strategy string

const (
	// StrategyAssigned lists only tasks addressed to the caller
	StrategyAssigned Strategy = "assigned"
	// StrategyProject lists every task of the selected project
	StrategyProject Strategy = "project"
)

// Capabilities is the set of UI affordances a role gets
type Capabilities struct {
	CanCreateTask            bool
	CanEditTask              bool
	CanAssignUsers           bool
	CanViewAllProjects       bool
	CanSearchAllUsers        bool
	CanSearchDepartmentUsers bool
}

// CanSearchUsers reports whether the role may open the assignee search at all
func (c Capabilities) CanSearchUsers() bool {
	return c.CanSearchAllUsers || c.CanSearchDepartmentUsers
}

var capabilities = map[domain.Role]Capabilities{
	domain.RoleCEO: {
		CanCreateTask:            true,
		CanEditTask:              true,
		CanAssignUsers:           true,
		CanViewAllProjects:       true,
		CanSearchAllUsers:        true,
		CanSearchDepartmentUsers: true,
	},
	domain.RoleManager: {
		CanCreateTask:            true,
		CanEditTask:              true,
		CanAssignUsers:           true,
		CanViewAllProjects:       true,
		CanSearchAllUsers:        true,
		CanSearchDepartmentUsers: true,
	},
	domain.RoleAssistantManager: {
		CanCreateTask:            true,
		CanEditTask:              true,
		CanAssignUsers:           true,
		CanViewAllProjects:       true,
		CanSearchDepartmentUsers: true,
	},
	domain.RoleDeveloper: {CanEditTask: true},
	domain.RoleIntern:    {CanEditTask: true},
}

// CapabilitiesFor returns the capability set of a role. Unknown roles get
// the zero value, the most restrictive set.
func CapabilitiesFor(role domain.Role) Capabilities {
	return capabilities[role]
}

// FetchStrategyFor returns the fetch strategy of a role. Roles that cannot
// view every project, unknown ones included, only see their own tasks.
func FetchStrategyFor(role domain.Role) Strategy {
	if CapabilitiesFor(role).CanViewAllProjects {
		return StrategyProject
	}
	return StrategyAssigned
}

// AssignableRoles returns the roles the given role may assign, most senior
// first. CEO and Manager reach every subordinate role, Assistant Manager
// only Developer and Intern.
func AssignableRoles(role domain.Role) []domain.Role {
	caps := CapabilitiesFor(role)
	if !caps.CanAssignUsers {
		return nil
	}
	if !caps.CanSearchAllUsers {
		return []domain.Role{domain.RoleDeveloper, domain.RoleIntern}
	}
	var roles []domain.Role
	for _, r := range domain.Roles {
		if role.Outranks(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Actor is the part of a session the policy needs
type Actor struct {
	Role         domain.Role
	DepartmentID string
}

// CanAssign reports whether actor may assign candidate. Department-scoped
// actors additionally need a known, matching department on both sides.
func CanAssign(actor Actor, candidate domain.User) bool {
	allowed := false
	for _, r := range AssignableRoles(actor.Role) {
		if r == candidate.Role {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	caps := CapabilitiesFor(actor.Role)
	if caps.CanSearchAllUsers {
		return true
	}
	return actor.DepartmentID != "" && actor.DepartmentID == candidate.DepartmentID
}

// FilterAssignable keeps the users actor may assign, in input order, and
// reports how many were hidden.
func FilterAssignable(actor Actor, users []domain.User) ([]domain.User, int) {
	kept := make([]domain.User, 0, len(users))
	for _, u := range users {
		if CanAssign(actor, u) {
			kept = append(kept, u)
		}
	}
	return kept, len(users) - len(kept)
}

package domain

import "strings"

// Role selects the dashboard and guard allowances of a user.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleClient    Role = "client"
)

// DefaultRole is used when nothing else resolves a role.
const DefaultRole = RoleCandidate

// RootPath is where guards send users whose role has no home.
const RootPath = "/"

var homePaths = map[Role]string{
	RoleCandidate: "/candidate/dashboard",
	RoleRecruiter: "/recruiter",
	RoleClient:    "/client",
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the three portal roles.
func (r Role) Valid() bool {
	_, ok := homePaths[r]
	return ok
}

// HomePath returns the canonical landing page for r, or RootPath when r has
// no entry in the table.
func (r Role) HomePath() string {
	if p, ok := homePaths[r]; ok {
		return p
	}
	return RootPath
}

func (r Role) String() string { return string(r) }

// ResolveRole applies the role precedence used everywhere a role is needed:
// explicit value, then the in-memory session, then the persisted store, then
// DefaultRole. Invalid candidates are skipped.
func ResolveRole(explicit, session, stored Role) Role {
	for _, r := range []Role{explicit, session, stored} {
		if r.Valid() {
			return r
		}
	}
	return DefaultRole
}

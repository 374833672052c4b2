package domain

import "testing"

func TestResolveRole_Precedence(t *testing.T) {
	cases := []struct {
		name                      string
		explicit, session, stored Role
		want                      Role
	}{
		{"explicit wins", RoleClient, RoleRecruiter, RoleCandidate, RoleClient},
		{"session over store", "", RoleRecruiter, RoleClient, RoleRecruiter},
		{"store when nothing else", "", "", RoleClient, RoleClient},
		{"default", "", "", "", RoleCandidate},
		{"invalid values skipped", "admin", "", RoleRecruiter, RoleRecruiter},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveRole(tc.explicit, tc.session, tc.stored); got != tc.want {
				t.Fatalf("ResolveRole() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRole_HomePath(t *testing.T) {
	if got := RoleCandidate.HomePath(); got != "/candidate/dashboard" {
		t.Fatalf("candidate home = %s", got)
	}
	if got := RoleRecruiter.HomePath(); got != "/recruiter" {
		t.Fatalf("recruiter home = %s", got)
	}
	if got := RoleClient.HomePath(); got != "/client" {
		t.Fatalf("client home = %s", got)
	}
	if got := Role("admin").HomePath(); got != RootPath {
		t.Fatalf("unknown role home = %s, want %s", got, RootPath)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Recruiter "); !ok || r != RoleRecruiter {
		t.Fatalf("ParseRole = %q %v", r, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("admin must not parse")
	}
}

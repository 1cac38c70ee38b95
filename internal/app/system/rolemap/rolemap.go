// Package rolemap derives the workspace role a user receives when they
// accept an invitation, from the domain of their email address.
package rolemap

import (
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
)

// Mapper maps email domains to roles.
type Mapper struct {
	teacherDomains map[string]struct{}
	defaultRole    authz.Role
}

// New builds a Mapper. Domains are matched case-insensitively and may be
// given with or without a leading "@". defaultRole must be a valid role
// and may not be owner.
func New(teacherDomains []string, defaultRole string) (*Mapper, error) {
	role, ok := authz.ParseRole(defaultRole)
	if !ok {
		return nil, fmt.Errorf("default member role %q is not a known role", defaultRole)
	}
	if role == authz.RoleOwner {
		return nil, fmt.Errorf("default member role cannot be %q", role)
	}
	m := &Mapper{
		teacherDomains: make(map[string]struct{}, len(teacherDomains)),
		defaultRole:    role,
	}
	for _, d := range teacherDomains {
		if d = normalize.Domain(d); d != "" {
			m.teacherDomains[d] = struct{}{}
		}
	}
	return m, nil
}

// RoleForEmail returns teacher for addresses on a teacher domain and the
// default role otherwise, including for empty or malformed addresses.
func (m *Mapper) RoleForEmail(email string) authz.Role {
	if d := normalize.EmailDomain(email); d != "" {
		if _, ok := m.teacherDomains[d]; ok {
			return authz.RoleTeacher
		}
	}
	return m.defaultRole
}

// Resolve decides the role to store for a user accepting an invitation.
// current is the role they already hold (hasCurrent=false if none).
// Owners and admins keep their role; changed reports whether the stored
// role differs from the result.
func (m *Mapper) Resolve(email string, current authz.Role, hasCurrent bool) (role authz.Role, changed bool) {
	derived := m.RoleForEmail(email)
	if !hasCurrent {
		return derived, true
	}
	if current.IsManager() {
		return current, false
	}
	return derived, derived != current
}

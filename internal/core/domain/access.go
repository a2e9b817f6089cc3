package domain

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAnyAuthenticated
	kindMinimumRole
	kindOneOf
)

// RoleRequirement describes who may run an operation. Build one with Public,
// AnyAuthenticated, MinimumRole or OneOf.
type RoleRequirement struct {
	kind  requirementKind
	min   Role
	roles []Role
}

// Public is satisfied by everyone, including requests without a session.
func Public() RoleRequirement {
	return RoleRequirement{kind: kindPublic}
}

// AnyAuthenticated is satisfied by any principal.
func AnyAuthenticated() RoleRequirement {
	return RoleRequirement{kind: kindAnyAuthenticated}
}

// MinimumRole is satisfied by r and every role above it.
func MinimumRole(r Role) RoleRequirement {
	return RoleRequirement{kind: kindMinimumRole, min: r}
}

// OneOf is satisfied by exactly the listed roles.
func OneOf(roles ...Role) RoleRequirement {
	cp := make([]Role, len(roles))
	copy(cp, roles)
	return RoleRequirement{kind: kindOneOf, roles: cp}
}

// StaffOrAdmin guards delivery assignment and status changes.
var StaffOrAdmin = OneOf(RoleStaff, RoleAdmin)

// Permits answers the role question only. Resource ownership is checked by the
// caller and composed with this result.
func Permits(p *Principal, req RoleRequirement) bool {
	if req.kind == kindPublic {
		return true
	}
	if p == nil {
		return false
	}
	switch req.kind {
	case kindAnyAuthenticated:
		return true
	case kindMinimumRole:
		return p.Role.AtLeast(req.min)
	case kindOneOf:
		for _, r := range req.roles {
			if p.Role == r {
				return true
			}
		}
	}
	return false
}

// DeniedError returns the error a caller should surface when Permits is false:
// no principal means authentication is required, otherwise the role is too low.
func DeniedError(p *Principal) error {
	if p == nil {
		return ErrAuthenticationRequired
	}
	return ErrInsufficientRole
}

package model

// UserRole is the account-level role carried in identity tokens.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// UserRoles lists every valid account role.
var UserRoles = []UserRole{UserRoleUser, UserRoleAdmin}

// DocumentRole is a permission tier on a single document.
type DocumentRole string

const (
	RoleCreator DocumentRole = "CREATOR"
	RoleEditor  DocumentRole = "EDITOR"
	RoleViewer  DocumentRole = "VIEWER"
)

// DocumentRoles lists every valid permission tier.
var DocumentRoles = []DocumentRole{RoleCreator, RoleEditor, RoleViewer}

// roleWeight orders tiers by capability: CREATOR ⊇ EDITOR ⊇ VIEWER.
var roleWeight = map[DocumentRole]int{
	RoleViewer:  1,
	RoleEditor:  2,
	RoleCreator: 3,
}

// Valid reports whether r is a known tier.
func (r DocumentRole) Valid() bool {
	_, ok := roleWeight[r]
	return ok
}

// Satisfies reports whether holding r grants every capability of required.
// Unknown roles satisfy nothing.
func (r DocumentRole) Satisfies(required DocumentRole) bool {
	have, ok := roleWeight[r]
	if !ok {
		return false
	}
	need, ok := roleWeight[required]
	if !ok {
		return false
	}
	return have >= need
}

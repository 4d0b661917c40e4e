// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// UserRole is the network-wide role carried in the "rol" claim.
type UserRole string

// Roles from least to most privileged.
const (
	RoleMember UserRole = "member"
	RoleAuthor UserRole = "author"
	RoleEditor UserRole = "editor"
	RoleAdmin  UserRole = "admin"
)

// roleOrder ranks the roles; an unknown role ranks below member.
var roleOrder = []UserRole{RoleMember, RoleAuthor, RoleEditor, RoleAdmin}

// level is 1 for member up to 4 for admin, 0 for anything else.
func (r UserRole) level() int {
	return slices.Index(roleOrder, r) + 1
}

// AtLeast reports whether r ranks at or above target. Unknown roles never
// qualify.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() > 0 && r.level() >= target.level()
}

// Default term capabilities, used by taxonomies that declare none.
const (
	CapManageTerms = "manage_multisite_terms"
	CapEditTerms   = "edit_multisite_terms"
	CapDeleteTerms = "delete_multisite_terms"
	CapAssignTerms = "assign_multisite_terms"
)

// capabilityFloor is the lowest role holding each default capability.
// Custom capabilities are implied by admin only; other roles need an
// explicit grant in the token.
var capabilityFloor = map[string]UserRole{
	CapManageTerms: RoleEditor,
	CapEditTerms:   RoleEditor,
	CapDeleteTerms: RoleEditor,
	CapAssignTerms: RoleAuthor,
}

// Can reports whether the role implies capability.
func (r UserRole) Can(capability string) bool {
	floor, ok := capabilityFloor[capability]
	if !ok {
		floor = RoleAdmin
	}
	return r.AtLeast(floor)
}

// Can reports whether the holder has capability through the role or an
// explicit grant. A nil receiver is an anonymous caller.
func (claims *AuthClaims) Can(capability string) bool {
	if claims == nil {
		return false
	}
	return UserRole(claims.Role).Can(capability) || slices.Contains(claims.Capabilities, capability)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package access provides authorization decisions for Lectoria.
//
// Authorization is a pure function over three inputs: the caller's role,
// the action being attempted, and the owner of the target resource.
// There are exactly two roles (admin, user) and a closed set of actions.
// Unknown roles and unknown actions are denied - there is no pass-through
// for unrecognized values.
//
// Reading the shared library (browsing, downloading) is not routed
// through this gate; it only requires an authenticated session.
package access

// Role is the closed set of account roles.
type Role string

const (
	// RoleAdmin may perform any action on any resource.
	RoleAdmin Role = "admin"

	// RoleUser may perform owner-restricted actions on resources they own.
	RoleUser Role = "user"
)

// ParseRole maps a stored role string to a Role.
// Returns ("", false) for anything outside the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Action is the closed set of protected operations.
type Action string

const (
	ActionDocumentEdit   Action = "document:edit"
	ActionDocumentDelete Action = "document:delete"
	ActionShareCreate    Action = "share:create"
	ActionShareList      Action = "share:list"
	ActionShareRevoke    Action = "share:revoke"
	ActionAnalyticsRead  Action = "analytics:read"
	ActionUserManage     Action = "user:manage"
)

// ownerRestricted actions are allowed to non-admins on resources they
// own. Everything else is admin-only.
var ownerRestricted = map[Action]bool{
	ActionDocumentEdit:   true,
	ActionDocumentDelete: true,
	ActionShareCreate:    true,
	ActionShareList:      true,
	ActionShareRevoke:    true,
	ActionAnalyticsRead:  true,
}

// Subject is the authenticated identity making a request.
type Subject struct {
	UserID string
	Role   Role
}

// CanAccess decides whether sub may perform action on a resource owned
// by resourceOwnerID. It is total: every input combination produces a
// decision and no combination panics.
//
// Truth table:
//   - admin: always allowed
//   - user:  allowed only for owner-restricted actions when sub.UserID
//     equals resourceOwnerID
//   - unknown role, unknown action, or empty user ID: denied
func CanAccess(sub Subject, action Action, resourceOwnerID string) bool {
	switch sub.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		if !ownerRestricted[action] {
			return false
		}
		return sub.UserID != "" && sub.UserID == resourceOwnerID
	default:
		return false
	}
}

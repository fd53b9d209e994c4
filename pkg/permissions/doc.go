// Package permissions decides whether an actor may perform an action on a
// resource.
//
// # Rules
//
// Rules are evaluated in order and the first that matches decides:
//
//  1. An inactive actor is denied everything.
//  2. A SuperAdmin is allowed everything.
//  3. A GroupAdmin acting on a group they created, or on a channel of such a
//     group, is allowed edit, delete, ban, create_channel, promote_member,
//     manage_members and review_request. Any other action is denied.
//  4. Any actor may edit or delete their own account, and may leave a group
//     they belong to.
//  5. A GroupAdmin may create groups.
//  6. Everything else is denied.
//
// # Usage
//
//	res := permissions.GroupResource(group)
//	if !permissions.CanPerform(actor, permissions.ActionDelete, res) {
//		return ErrPermissionDenied
//	}
//
// Explain returns the same answer along with the rule that produced it, for
// logging and audit.
//
// The evaluator is pure: it reads only its arguments. Structural checks such
// as "the creator cannot leave" belong to the membership service.
package permissions

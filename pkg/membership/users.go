package membership

import (
	"context"
	"slices"
	"strings"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/permissions"
	"github.com/platinummonkey/roster/pkg/repository"
)

// UserInput describes a new account
type UserInput struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Roles    []model.Role `json:"roles,omitempty"`
}

// ProfilePatch changes the fields that are non-nil
type ProfilePatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

var writeUsers = []repository.Collection{repository.CollectionUsers}

// RegisterUser creates an active account. Without an actor (self sign-up)
// only the Member role may be requested; granting any other role needs an
// actor holding the PromoteRole permission.
func (s *Service) RegisterUser(ctx context.Context, actorID string, in UserInput) (*model.User, error) {
	var created *model.User
	err := s.Transact(ctx, "RegisterUser", writeUsers, func(tx *Tx) error {
		username := strings.TrimSpace(in.Username)
		if username == "" {
			return tx.Fail(KindInvalidInput, "username is required")
		}
		roles, err := normalizeRoles(tx, in.Roles)
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			roles = []model.Role{model.RoleMember}
		}

		user := &model.User{
			ID:        tx.NewID(),
			Username:  username,
			Email:     strings.TrimSpace(in.Email),
			Roles:     roles,
			Groups:    []string{},
			IsActive:  true,
			CreatedAt: tx.Now(),
			UpdatedAt: tx.Now(),
		}

		elevated := len(roles) != 1 || roles[0] != model.RoleMember
		if elevated {
			if actorID == "" {
				return tx.Fail(KindPermissionDenied, "self sign-up may only request the %s role", model.RoleMember)
			}
			actor, err := tx.Actor(actorID)
			if err != nil {
				return err
			}
			if err := tx.Require(actor, permissions.ActionPromoteRole, permissions.UserResource(user)); err != nil {
				return err
			}
		}
		if tx.Snapshot().UserByUsername(username) != nil {
			return tx.Fail(KindNameConflict, "username %q is taken", username)
		}

		snap := tx.Snapshot()
		snap.Users = append(snap.Users, user)
		tx.MarkDirty(repository.CollectionUsers)

		by := actorID
		if by == "" {
			by = user.ID
		}
		tx.Audit(audit.NewEvent(audit.EventTypeUserRegister, by, audit.ResourceTypeUser, user.ID, "registered user "+user.Username))
		created = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProfile changes a user's username or email
func (s *Service) UpdateProfile(ctx context.Context, actorID, userID string, patch ProfilePatch) (*model.User, error) {
	var updated *model.User
	err := s.Transact(ctx, "UpdateProfile", writeUsers, func(tx *Tx) error {
		actor, user, err := userAction(tx, actorID, userID, permissions.ActionEdit)
		if err != nil {
			return err
		}

		before := map[string]interface{}{"username": user.Username, "email": user.Email}
		if patch.Username != nil {
			username := strings.TrimSpace(*patch.Username)
			if username == "" {
				return tx.Fail(KindInvalidInput, "username is required")
			}
			if other := tx.Snapshot().UserByUsername(username); other != nil && other.ID != user.ID {
				return tx.Fail(KindNameConflict, "username %q is taken", username)
			}
			user.Username = username
		}
		if patch.Email != nil {
			user.Email = strings.TrimSpace(*patch.Email)
		}
		user.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionUsers)

		event := audit.NewEvent(audit.EventTypeUserUpdate, actor.ID, audit.ResourceTypeUser, user.ID, "updated profile")
		event.Changes = &audit.ChangeDetails{
			Before: before,
			After:  map[string]interface{}{"username": user.Username, "email": user.Email},
		}
		tx.Audit(event)
		updated = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetRoles replaces a user's platform roles
func (s *Service) SetRoles(ctx context.Context, actorID, userID string, roles []model.Role) (*model.User, error) {
	var updated *model.User
	err := s.Transact(ctx, "SetRoles", writeUsers, func(tx *Tx) error {
		actor, user, err := userAction(tx, actorID, userID, permissions.ActionPromoteRole)
		if err != nil {
			return err
		}
		normalized, err := normalizeRoles(tx, roles)
		if err != nil {
			return err
		}
		if len(normalized) == 0 {
			return tx.Fail(KindInvalidInput, "a user must hold at least one role")
		}
		if !slices.Contains(normalized, model.RoleSuperAdmin) {
			if err := keepSuperAdmin(tx, user); err != nil {
				return err
			}
		}

		before := rolesToStrings(user.Roles)
		user.Roles = normalized
		user.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionUsers)

		event := audit.NewEvent(audit.EventTypeUserRoleChange, actor.ID, audit.ResourceTypeUser, user.ID, "changed roles")
		event.Changes = &audit.ChangeDetails{
			Before: map[string]interface{}{"roles": before},
			After:  map[string]interface{}{"roles": rolesToStrings(user.Roles)},
		}
		tx.Audit(event)
		updated = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive activates or deactivates an account. Inactive users are denied
// every permission but keep their memberships.
func (s *Service) SetActive(ctx context.Context, actorID, userID string, active bool) (*model.User, error) {
	var updated *model.User
	err := s.Transact(ctx, "SetActive", writeUsers, func(tx *Tx) error {
		actor, user, err := userAction(tx, actorID, userID, permissions.ActionPromoteRole)
		if err != nil {
			return err
		}
		if user.IsActive != active {
			if !active {
				if err := keepSuperAdmin(tx, user); err != nil {
					return err
				}
			}
			user.IsActive = active
			user.UpdatedAt = tx.Now()
			tx.MarkDirty(repository.CollectionUsers)

			eventType, message := audit.EventTypeUserActivate, "activated user"
			if !active {
				eventType, message = audit.EventTypeUserDeactivate, "deactivated user"
			}
			tx.Audit(audit.NewEvent(eventType, actor.ID, audit.ResourceTypeUser, user.ID, message))
		}
		updated = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes an account and every reference to it. Groups the user
// created are deleted when the user is their only member; a created group
// with other members blocks the deletion.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID string) error {
	return s.Transact(ctx, "DeleteUser", writeAll, func(tx *Tx) error {
		actor, user, err := userAction(tx, actorID, userID, permissions.ActionDelete)
		if err != nil {
			return err
		}
		if err := keepSuperAdmin(tx, user); err != nil {
			return err
		}
		snap := tx.Snapshot()

		var owned []*model.Group
		for _, g := range snap.Groups {
			if g.CreatedBy != user.ID {
				continue
			}
			if len(g.Members) > 1 || (len(g.Members) == 1 && g.Members[0] != user.ID) {
				return tx.Fail(KindInvariantViolation,
					"user %s created group %s which still has other members", user.ID, g.ID)
			}
			owned = append(owned, g)
		}

		deletedGroups := make([]string, 0, len(owned))
		for _, g := range owned {
			deleteGroup(tx, g)
			deletedGroups = append(deletedGroups, g.ID)
		}
		for _, g := range snap.Groups {
			if model.ContainsID(g.Members, user.ID) || model.ContainsID(g.Admins, user.ID) {
				g.Members = model.RemoveID(g.Members, user.ID)
				g.Admins = model.RemoveID(g.Admins, user.ID)
				g.UpdatedAt = tx.Now()
			}
		}
		for _, c := range snap.Channels {
			if model.ContainsID(c.Members, user.ID) || model.ContainsID(c.BannedUsers, user.ID) {
				c.Members = model.RemoveID(c.Members, user.ID)
				c.BannedUsers = model.RemoveID(c.BannedUsers, user.ID)
				c.UpdatedAt = tx.Now()
			}
		}
		snap.RemoveJoinRequests(func(r *model.JoinRequest) bool {
			return r.UserID == user.ID
		})
		snap.RemoveUser(user.ID)
		tx.MarkDirty(writeAll...)

		event := audit.NewEvent(audit.EventTypeUserDelete, actor.ID, audit.ResourceTypeUser, user.ID, "deleted user "+user.Username)
		if len(deletedGroups) > 0 {
			event.Metadata["deleted_groups"] = deletedGroups
		}
		tx.Audit(event)
		return nil
	})
}

func userAction(tx *Tx, actorID, userID string, action permissions.Action) (*model.User, *model.User, error) {
	actor, err := tx.Actor(actorID)
	if err != nil {
		return nil, nil, err
	}
	user, err := tx.User(userID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Require(actor, action, permissions.UserResource(user)); err != nil {
		return nil, nil, err
	}
	return actor, user, nil
}

// keepSuperAdmin fails if user is the last active SuperAdmin and is about to
// stop being one.
func keepSuperAdmin(tx *Tx, user *model.User) error {
	if !user.IsActive || !user.HasRole(model.RoleSuperAdmin) {
		return nil
	}
	for _, u := range tx.Snapshot().Users {
		if u.ID != user.ID && u.IsActive && u.HasRole(model.RoleSuperAdmin) {
			return nil
		}
	}
	return tx.Fail(KindInvariantViolation, "user %s is the last active SuperAdmin", user.ID)
}

// normalizeRoles validates roles and drops duplicates, keeping order
func normalizeRoles(tx *Tx, roles []model.Role) ([]model.Role, error) {
	out := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, tx.Fail(KindInvalidInput, "unknown role %q", r)
		}
		dup := false
		for _, seen := range out {
			if seen == r {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out, nil
}

func rolesToStrings(roles []model.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

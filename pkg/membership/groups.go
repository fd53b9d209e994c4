package membership

import (
	"context"
	"strings"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/permissions"
	"github.com/platinummonkey/roster/pkg/repository"
)

// GroupInput describes a new group
type GroupInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      model.GroupStatus `json:"status"`
	MaxMembers  int               `json:"max_members"`
}

// GroupPatch changes the fields that are non-nil
type GroupPatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *model.GroupStatus `json:"status,omitempty"`
	MaxMembers  *int               `json:"max_members,omitempty"`
}

var (
	writeUsersGroups         = []repository.Collection{repository.CollectionUsers, repository.CollectionGroups}
	writeUsersGroupsChannels = []repository.Collection{repository.CollectionUsers, repository.CollectionGroups, repository.CollectionChannels}
	writeAll                 = repository.AllCollections
)

// CreateGroup creates a group owned by the actor, seeds its default text
// channel and enrolls the actor in both.
func (s *Service) CreateGroup(ctx context.Context, actorID string, in GroupInput) (*model.Group, error) {
	var created *model.Group
	err := s.Transact(ctx, "CreateGroup", writeUsersGroupsChannels, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		if err := tx.Require(actor, permissions.ActionCreateGroup, permissions.PlatformResource()); err != nil {
			return err
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			return tx.Fail(KindInvalidInput, "group name is required")
		}
		status := in.Status
		if status == "" {
			status = model.GroupStatusActive
		}
		if !status.Valid() {
			return tx.Fail(KindInvalidInput, "unknown group status %q", status)
		}
		if in.MaxMembers < 0 {
			return tx.Fail(KindInvalidInput, "max_members must not be negative")
		}
		snap := tx.Snapshot()
		if snap.GroupByName(name) != nil {
			return tx.Fail(KindNameConflict, "group %q already exists", name)
		}

		group := &model.Group{
			ID:          tx.NewID(),
			Name:        name,
			Description: in.Description,
			Status:      status,
			CreatedBy:   actor.ID,
			Admins:      []string{actor.ID},
			Members:     []string{actor.ID},
			Channels:    []string{},
			MaxMembers:  in.MaxMembers,
			CreatedAt:   tx.Now(),
			UpdatedAt:   tx.Now(),
		}
		snap.Groups = append(snap.Groups, group)
		actor.Groups = model.AddID(actor.Groups, group.ID)
		actor.UpdatedAt = tx.Now()

		addChannel(tx, group, actor, s.cfg.DefaultChannelName, "", model.ChannelTypeText, 0)

		tx.MarkDirty(writeUsersGroupsChannels...)
		tx.Audit(audit.NewEvent(audit.EventTypeGroupCreate, actor.ID, audit.ResourceTypeGroup, group.ID, "created group "+group.Name))
		created = group.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateGroup applies patch to a group
func (s *Service) UpdateGroup(ctx context.Context, actorID, groupID string, patch GroupPatch) (*model.Group, error) {
	var updated *model.Group
	err := s.Transact(ctx, "UpdateGroup", []repository.Collection{repository.CollectionGroups}, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		if err := tx.Require(actor, permissions.ActionEdit, permissions.GroupResource(group)); err != nil {
			return err
		}

		before := groupFields(group)
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return tx.Fail(KindInvalidInput, "group name is required")
			}
			if other := tx.Snapshot().GroupByName(name); other != nil && other.ID != group.ID {
				return tx.Fail(KindNameConflict, "group %q already exists", name)
			}
			group.Name = name
		}
		if patch.Description != nil {
			group.Description = *patch.Description
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return tx.Fail(KindInvalidInput, "unknown group status %q", *patch.Status)
			}
			group.Status = *patch.Status
		}
		if patch.MaxMembers != nil {
			max := *patch.MaxMembers
			if max < 0 {
				return tx.Fail(KindInvalidInput, "max_members must not be negative")
			}
			if max > 0 && max < len(group.Members) {
				return tx.Fail(KindInvariantViolation, "group %s already has %d members", group.ID, len(group.Members))
			}
			group.MaxMembers = max
		}
		group.UpdatedAt = tx.Now()

		tx.MarkDirty(repository.CollectionGroups)
		event := audit.NewEvent(audit.EventTypeGroupUpdate, actor.ID, audit.ResourceTypeGroup, group.ID, "updated group")
		event.Changes = &audit.ChangeDetails{Before: before, After: groupFields(group)}
		tx.Audit(event)
		updated = group.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteGroup removes a group that has no members besides its creator,
// together with its channels and pending join requests.
func (s *Service) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	return s.Transact(ctx, "DeleteGroup", writeAll, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		if err := tx.Require(actor, permissions.ActionDelete, permissions.GroupResource(group)); err != nil {
			return err
		}
		if len(group.Members) > 1 {
			return tx.Fail(KindNotEmpty, "group %s still has %d members", group.ID, len(group.Members))
		}

		deleteGroup(tx, group)
		tx.Audit(audit.NewEvent(audit.EventTypeGroupDelete, actor.ID, audit.ResourceTypeGroup, group.ID, "deleted group "+group.Name))
		return nil
	})
}

// deleteGroup removes group, its channels, its pending requests and every
// back-reference to it
func deleteGroup(tx *Tx, group *model.Group) {
	snap := tx.Snapshot()
	for _, uid := range group.Members {
		if u := snap.User(uid); u != nil {
			u.Groups = model.RemoveID(u.Groups, group.ID)
			u.UpdatedAt = tx.Now()
		}
	}
	for _, cid := range group.Channels {
		snap.RemoveChannel(cid)
	}
	// Channels that name the group but are missing from its list
	for _, c := range snap.ChannelsOf(group.ID) {
		snap.RemoveChannel(c.ID)
	}
	snap.RemoveJoinRequests(func(r *model.JoinRequest) bool {
		return r.GroupID == group.ID && r.IsPending()
	})
	snap.RemoveGroup(group.ID)
	tx.MarkDirty(writeAll...)
}

// AddMember adds a user to a group
func (s *Service) AddMember(ctx context.Context, actorID, groupID, userID string) error {
	return s.Transact(ctx, "AddMember", writeUsersGroups, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		if err := tx.Require(actor, permissions.ActionManageMembers, permissions.GroupResource(group)); err != nil {
			return err
		}
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		if err := tx.AddMember(group, user); err != nil {
			return err
		}

		event := audit.NewEvent(audit.EventTypeGroupMemberAdd, actor.ID, audit.ResourceTypeGroup, group.ID, "added member")
		event.Metadata["user_id"] = user.ID
		tx.Audit(event)
		return nil
	})
}

// RemoveMember removes a user from a group and from every channel of the
// group. Removing oneself needs only the leave permission.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	op := "RemoveMember"
	if actorID == userID {
		op = "LeaveGroup"
	}
	return s.Transact(ctx, op, writeUsersGroupsChannels, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		action := permissions.ActionManageMembers
		if actor.ID == userID {
			action = permissions.ActionLeave
		}
		if err := tx.Require(actor, action, permissions.GroupResource(group)); err != nil {
			return err
		}
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		if !model.ContainsID(group.Members, user.ID) {
			return tx.Fail(KindNotGroupMember, "user %s is not a member of group %s", user.ID, group.ID)
		}
		if group.CreatedBy == user.ID {
			return tx.Fail(KindInvariantViolation, "the creator of group %s cannot be removed", group.ID)
		}

		removeMember(tx, group, user)
		event := audit.NewEvent(audit.EventTypeGroupMemberRemove, actor.ID, audit.ResourceTypeGroup, group.ID, "removed member")
		event.Metadata["user_id"] = user.ID
		tx.Audit(event)
		return nil
	})
}

// LeaveGroup removes the user from a group they belong to
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	return s.RemoveMember(ctx, userID, groupID, userID)
}

// removeMember drops user from group, its admins and the member lists of
// the group's channels. Bans are kept.
func removeMember(tx *Tx, group *model.Group, user *model.User) {
	group.Members = model.RemoveID(group.Members, user.ID)
	group.Admins = model.RemoveID(group.Admins, user.ID)
	group.UpdatedAt = tx.Now()
	user.Groups = model.RemoveID(user.Groups, group.ID)
	user.UpdatedAt = tx.Now()
	for _, c := range tx.Snapshot().ChannelsOf(group.ID) {
		if model.ContainsID(c.Members, user.ID) {
			c.Members = model.RemoveID(c.Members, user.ID)
			c.UpdatedAt = tx.Now()
		}
	}
	tx.MarkDirty(writeUsersGroupsChannels...)
}

// PromoteMember makes a member a group admin. Promoting an admin is a no-op.
func (s *Service) PromoteMember(ctx context.Context, actorID, groupID, userID string) error {
	return s.Transact(ctx, "PromoteMember", []repository.Collection{repository.CollectionGroups}, func(tx *Tx) error {
		actor, group, err := groupAdminAction(tx, actorID, groupID)
		if err != nil {
			return err
		}
		if !model.ContainsID(group.Members, userID) {
			return tx.Fail(KindNotGroupMember, "user %s is not a member of group %s", userID, group.ID)
		}
		if model.ContainsID(group.Admins, userID) {
			return nil
		}

		group.Admins = model.AddID(group.Admins, userID)
		group.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionGroups)
		event := audit.NewEvent(audit.EventTypeGroupAdminPromote, actor.ID, audit.ResourceTypeGroup, group.ID, "promoted member to admin")
		event.Metadata["user_id"] = userID
		tx.Audit(event)
		return nil
	})
}

// DemoteAdmin removes a user from a group's admins. The creator cannot be
// demoted; demoting a non-admin member is a no-op.
func (s *Service) DemoteAdmin(ctx context.Context, actorID, groupID, userID string) error {
	return s.Transact(ctx, "DemoteAdmin", []repository.Collection{repository.CollectionGroups}, func(tx *Tx) error {
		actor, group, err := groupAdminAction(tx, actorID, groupID)
		if err != nil {
			return err
		}
		if !model.ContainsID(group.Members, userID) {
			return tx.Fail(KindNotGroupMember, "user %s is not a member of group %s", userID, group.ID)
		}
		if group.CreatedBy == userID {
			return tx.Fail(KindInvariantViolation, "the creator of group %s must remain an admin", group.ID)
		}
		if !model.ContainsID(group.Admins, userID) {
			return nil
		}

		group.Admins = model.RemoveID(group.Admins, userID)
		group.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionGroups)
		event := audit.NewEvent(audit.EventTypeGroupAdminDemote, actor.ID, audit.ResourceTypeGroup, group.ID, "demoted admin")
		event.Metadata["user_id"] = userID
		tx.Audit(event)
		return nil
	})
}

func groupAdminAction(tx *Tx, actorID, groupID string) (*model.User, *model.Group, error) {
	actor, err := tx.Actor(actorID)
	if err != nil {
		return nil, nil, err
	}
	group, err := tx.Group(groupID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Require(actor, permissions.ActionPromoteMember, permissions.GroupResource(group)); err != nil {
		return nil, nil, err
	}
	return actor, group, nil
}

func groupFields(g *model.Group) map[string]interface{} {
	return map[string]interface{}{
		"name":        g.Name,
		"description": g.Description,
		"status":      string(g.Status),
		"max_members": g.MaxMembers,
	}
}

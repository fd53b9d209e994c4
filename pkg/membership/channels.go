package membership

import (
	"context"
	"strings"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/permissions"
	"github.com/platinummonkey/roster/pkg/repository"
)

// ChannelInput describes a new channel
type ChannelInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        model.ChannelType `json:"type"`
	MaxMembers  int               `json:"max_members"`
}

// ChannelPatch changes the fields that are non-nil
type ChannelPatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Type        *model.ChannelType `json:"type,omitempty"`
	MaxMembers  *int               `json:"max_members,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

var (
	writeChannels       = []repository.Collection{repository.CollectionChannels}
	writeGroupsChannels = []repository.Collection{repository.CollectionGroups, repository.CollectionChannels}
)

// addChannel creates a channel in group. The creator is enrolled when they
// belong to the group.
func addChannel(tx *Tx, group *model.Group, creator *model.User, name, description string, typ model.ChannelType, maxMembers int) *model.Channel {
	channel := &model.Channel{
		ID:          tx.NewID(),
		Name:        name,
		Description: description,
		GroupID:     group.ID,
		Type:        typ,
		CreatedBy:   creator.ID,
		Members:     []string{},
		BannedUsers: []string{},
		MaxMembers:  maxMembers,
		IsActive:    true,
		CreatedAt:   tx.Now(),
		UpdatedAt:   tx.Now(),
	}
	if model.ContainsID(group.Members, creator.ID) {
		channel.Members = append(channel.Members, creator.ID)
	}
	snap := tx.Snapshot()
	snap.Channels = append(snap.Channels, channel)
	group.Channels = model.AddID(group.Channels, channel.ID)
	group.UpdatedAt = tx.Now()
	tx.MarkDirty(writeGroupsChannels...)
	return channel
}

// CreateChannel adds a channel to a group
func (s *Service) CreateChannel(ctx context.Context, actorID, groupID string, in ChannelInput) (*model.Channel, error) {
	var created *model.Channel
	err := s.Transact(ctx, "CreateChannel", writeGroupsChannels, func(tx *Tx) error {
		actor, err := tx.Actor(actorID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		if err := tx.Require(actor, permissions.ActionCreateChannel, permissions.GroupResource(group)); err != nil {
			return err
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			return tx.Fail(KindInvalidInput, "channel name is required")
		}
		typ := in.Type
		if typ == "" {
			typ = model.ChannelTypeText
		}
		if !typ.Valid() {
			return tx.Fail(KindInvalidInput, "unknown channel type %q", typ)
		}
		if in.MaxMembers < 0 {
			return tx.Fail(KindInvalidInput, "max_members must not be negative")
		}
		if channelNameTaken(tx.Snapshot(), group.ID, name, "") {
			return tx.Fail(KindNameConflict, "channel %q already exists in group %s", name, group.ID)
		}

		channel := addChannel(tx, group, actor, name, in.Description, typ, in.MaxMembers)
		event := audit.NewEvent(audit.EventTypeChannelCreate, actor.ID, audit.ResourceTypeChannel, channel.ID, "created channel "+channel.Name)
		event.Metadata["group_id"] = group.ID
		tx.Audit(event)
		created = channel.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func channelNameTaken(snap *repository.Snapshot, groupID, name, exceptID string) bool {
	for _, c := range snap.ChannelsOf(groupID) {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

// UpdateChannel applies patch to a channel
func (s *Service) UpdateChannel(ctx context.Context, actorID, channelID string, patch ChannelPatch) (*model.Channel, error) {
	var updated *model.Channel
	err := s.Transact(ctx, "UpdateChannel", writeChannels, func(tx *Tx) error {
		actor, channel, _, err := channelAction(tx, actorID, channelID, permissions.ActionEdit)
		if err != nil {
			return err
		}

		before := channelFields(channel)
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return tx.Fail(KindInvalidInput, "channel name is required")
			}
			if channelNameTaken(tx.Snapshot(), channel.GroupID, name, channel.ID) {
				return tx.Fail(KindNameConflict, "channel %q already exists in group %s", name, channel.GroupID)
			}
			channel.Name = name
		}
		if patch.Description != nil {
			channel.Description = *patch.Description
		}
		if patch.Type != nil {
			if !patch.Type.Valid() {
				return tx.Fail(KindInvalidInput, "unknown channel type %q", *patch.Type)
			}
			channel.Type = *patch.Type
		}
		if patch.MaxMembers != nil {
			max := *patch.MaxMembers
			if max < 0 {
				return tx.Fail(KindInvalidInput, "max_members must not be negative")
			}
			if max > 0 && max < len(channel.Members) {
				return tx.Fail(KindInvariantViolation, "channel %s already has %d members", channel.ID, len(channel.Members))
			}
			channel.MaxMembers = max
		}
		if patch.IsActive != nil {
			channel.IsActive = *patch.IsActive
		}
		channel.UpdatedAt = tx.Now()

		tx.MarkDirty(repository.CollectionChannels)
		event := audit.NewEvent(audit.EventTypeChannelUpdate, actor.ID, audit.ResourceTypeChannel, channel.ID, "updated channel")
		event.Changes = &audit.ChangeDetails{Before: before, After: channelFields(channel)}
		tx.Audit(event)
		updated = channel.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteChannel removes a channel that has no members
func (s *Service) DeleteChannel(ctx context.Context, actorID, channelID string) error {
	return s.Transact(ctx, "DeleteChannel", writeGroupsChannels, func(tx *Tx) error {
		actor, channel, group, err := channelAction(tx, actorID, channelID, permissions.ActionDelete)
		if err != nil {
			return err
		}
		if len(channel.Members) > 0 {
			return tx.Fail(KindHasMembers, "channel %s still has %d members", channel.ID, len(channel.Members))
		}

		if group != nil {
			group.Channels = model.RemoveID(group.Channels, channel.ID)
			group.UpdatedAt = tx.Now()
		}
		tx.Snapshot().RemoveChannel(channel.ID)
		tx.MarkDirty(writeGroupsChannels...)

		event := audit.NewEvent(audit.EventTypeChannelDelete, actor.ID, audit.ResourceTypeChannel, channel.ID, "deleted channel "+channel.Name)
		event.Metadata["group_id"] = channel.GroupID
		tx.Audit(event)
		return nil
	})
}

// JoinChannel enrolls a group member in one of the group's channels.
// Joining a channel twice is a no-op.
func (s *Service) JoinChannel(ctx context.Context, userID, channelID string) error {
	return s.Transact(ctx, "JoinChannel", writeChannels, func(tx *Tx) error {
		user, err := tx.ActiveUser(userID)
		if err != nil {
			return err
		}
		channel, err := tx.Channel(channelID)
		if err != nil {
			return err
		}
		group, err := tx.Group(channel.GroupID)
		if err != nil {
			return err
		}
		if !model.ContainsID(group.Members, user.ID) {
			return tx.Fail(KindNotGroupMember, "user %s is not a member of group %s", user.ID, group.ID)
		}
		if model.ContainsID(channel.BannedUsers, user.ID) {
			return tx.Fail(KindBanned, "user %s is banned from channel %s", user.ID, channel.ID)
		}
		if model.ContainsID(channel.Members, user.ID) {
			return nil
		}
		if !channel.IsActive {
			return tx.Fail(KindInvalidInput, "channel %s is not active", channel.ID)
		}
		if channel.IsFull() {
			return tx.Fail(KindChannelFull, "channel %s has reached its limit of %d members", channel.ID, channel.MaxMembers)
		}

		channel.Members = append(channel.Members, user.ID)
		channel.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionChannels)
		return nil
	})
}

// LeaveChannel removes the user from a channel. Leaving a channel one is
// not in is a no-op.
func (s *Service) LeaveChannel(ctx context.Context, userID, channelID string) error {
	return s.Transact(ctx, "LeaveChannel", writeChannels, func(tx *Tx) error {
		user, err := tx.ActiveUser(userID)
		if err != nil {
			return err
		}
		channel, err := tx.Channel(channelID)
		if err != nil {
			return err
		}
		if !model.ContainsID(channel.Members, user.ID) {
			return nil
		}
		channel.Members = model.RemoveID(channel.Members, user.ID)
		channel.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionChannels)
		return nil
	})
}

// BanUser removes a user from a channel and blocks them from rejoining.
// Banning a banned user is a no-op.
func (s *Service) BanUser(ctx context.Context, actorID, channelID, userID, reason string) error {
	return s.Transact(ctx, "BanUser", writeChannels, func(tx *Tx) error {
		actor, channel, _, err := channelAction(tx, actorID, channelID, permissions.ActionBan)
		if err != nil {
			return err
		}
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		if model.ContainsID(channel.BannedUsers, user.ID) {
			return nil
		}

		channel.Members = model.RemoveID(channel.Members, user.ID)
		channel.BannedUsers = append(channel.BannedUsers, user.ID)
		channel.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionChannels)

		event := audit.NewEvent(audit.EventTypeChannelBan, actor.ID, audit.ResourceTypeChannel, channel.ID, "banned user")
		event.Metadata["user_id"] = user.ID
		if reason != "" {
			event.Metadata["reason"] = reason
		}
		tx.Audit(event)
		return nil
	})
}

// UnbanUser lifts a ban. The user is not re-enrolled. Unbanning a user who
// is not banned is a no-op.
func (s *Service) UnbanUser(ctx context.Context, actorID, channelID, userID string) error {
	return s.Transact(ctx, "UnbanUser", writeChannels, func(tx *Tx) error {
		actor, channel, _, err := channelAction(tx, actorID, channelID, permissions.ActionBan)
		if err != nil {
			return err
		}
		if !model.ContainsID(channel.BannedUsers, userID) {
			return nil
		}

		channel.BannedUsers = model.RemoveID(channel.BannedUsers, userID)
		channel.UpdatedAt = tx.Now()
		tx.MarkDirty(repository.CollectionChannels)

		event := audit.NewEvent(audit.EventTypeChannelUnban, actor.ID, audit.ResourceTypeChannel, channel.ID, "unbanned user")
		event.Metadata["user_id"] = userID
		tx.Audit(event)
		return nil
	})
}

// channelAction resolves actor and channel and checks the actor may perform
// action on it. The owning group is nil only in a corrupt snapshot.
func channelAction(tx *Tx, actorID, channelID string, action permissions.Action) (*model.User, *model.Channel, *model.Group, error) {
	actor, err := tx.Actor(actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	channel, err := tx.Channel(channelID)
	if err != nil {
		return nil, nil, nil, err
	}
	group := tx.Snapshot().Group(channel.GroupID)
	if err := tx.Require(actor, action, permissions.ChannelResource(channel, group)); err != nil {
		return nil, nil, nil, err
	}
	return actor, channel, group, nil
}

func channelFields(c *model.Channel) map[string]interface{} {
	return map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"type":        string(c.Type),
		"max_members": c.MaxMembers,
		"is_active":   c.IsActive,
	}
}

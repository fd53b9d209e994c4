package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/repository"
)

func TestCreateChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("creator enrolled when in group", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		c, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "voice", Type: model.ChannelTypeVoice})
		require.NoError(t, err)
		assert.Equal(t, []string{groupAdmin}, c.Members)
		assert.Equal(t, g.ID, c.GroupID)
		assert.True(t, c.IsActive)

		got, err := env.svc.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.Channels[len(got.Channels)-1])
		env.requireConsistent(t)
	})

	t.Run("super admin outside the group is not enrolled", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		c, err := env.svc.CreateChannel(ctx, superAdmin, g.ID, ChannelInput{Name: "ops"})
		require.NoError(t, err)
		assert.Empty(t, c.Members)
		assert.Equal(t, model.ChannelTypeText, c.Type)
		env.requireConsistent(t)
	})

	t.Run("name unique within group only", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		h := env.createGroup(t, groupAdmin, "H")
		_, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: DefaultChannelName})
		assert.True(t, errors.Is(err, ErrNameConflict))
		_, err = env.svc.CreateChannel(ctx, groupAdmin, h.ID, ChannelInput{Name: "shared"})
		require.NoError(t, err)
		_, err = env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "shared"})
		require.NoError(t, err)
	})

	t.Run("invalid input and permission", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		_, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "x", Type: "Carrier"})
		assert.True(t, errors.Is(err, ErrInvalidInput))
		_, err = env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{})
		assert.True(t, errors.Is(err, ErrInvalidInput))
		_, err = env.svc.CreateChannel(ctx, member, g.ID, ChannelInput{Name: "x"})
		assert.True(t, errors.Is(err, ErrPermissionDenied))
	})
}

func TestUpdateChannel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	g := env.createGroup(t, groupAdmin, "G")
	c, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "dev"})
	require.NoError(t, err)

	name := "engineering"
	inactive := false
	updated, err := env.svc.UpdateChannel(ctx, groupAdmin, c.ID, ChannelPatch{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "engineering", updated.Name)
	assert.False(t, updated.IsActive)

	taken := DefaultChannelName
	_, err = env.svc.UpdateChannel(ctx, groupAdmin, c.ID, ChannelPatch{Name: &taken})
	assert.True(t, errors.Is(err, ErrNameConflict))

	require.NoError(t, env.svc.AddMember(ctx, groupAdmin, g.ID, member))
	err = env.svc.JoinChannel(ctx, member, c.ID)
	assert.True(t, errors.Is(err, ErrInvalidInput), "inactive channels cannot be joined")

	active := true
	_, err = env.svc.UpdateChannel(ctx, groupAdmin, c.ID, ChannelPatch{IsActive: &active})
	require.NoError(t, err)
	require.NoError(t, env.svc.JoinChannel(ctx, member, c.ID))

	one := 1
	_, err = env.svc.UpdateChannel(ctx, groupAdmin, c.ID, ChannelPatch{MaxMembers: &one})
	assert.True(t, errors.Is(err, ErrInvariantViolation))

	_, err = env.svc.UpdateChannel(ctx, member, c.ID, ChannelPatch{Name: &name})
	assert.True(t, errors.Is(err, ErrPermissionDenied))
}

func TestDeleteChannel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	g := env.createGroup(t, groupAdmin, "G")
	general := g.Channels[0]

	err := env.svc.DeleteChannel(ctx, groupAdmin, general)
	assert.True(t, errors.Is(err, ErrHasMembers))

	require.NoError(t, env.svc.LeaveChannel(ctx, groupAdmin, general))
	require.NoError(t, env.svc.DeleteChannel(ctx, groupAdmin, general))

	got, err := env.svc.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Channels)
	_, err = env.svc.GetChannel(ctx, general)
	assert.True(t, errors.Is(err, ErrNotFound))
	env.requireConsistent(t)
}

func TestJoinChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("requires group membership", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		err := env.svc.JoinChannel(ctx, member, g.Channels[0])
		assert.True(t, errors.Is(err, ErrNotGroupMember))
	})

	t.Run("joining twice is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		require.NoError(t, env.svc.AddMember(ctx, groupAdmin, g.ID, member))
		require.NoError(t, env.svc.JoinChannel(ctx, member, g.Channels[0]))
		before := env.raw(t)
		require.NoError(t, env.svc.JoinChannel(ctx, member, g.Channels[0]))
		assert.Equal(t, before, env.raw(t))
	})

	t.Run("capacity", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		c, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "tiny", MaxMembers: 1})
		require.NoError(t, err)
		require.NoError(t, env.svc.AddMember(ctx, groupAdmin, g.ID, member))
		err = env.svc.JoinChannel(ctx, member, c.ID)
		assert.True(t, errors.Is(err, ErrChannelFull))
	})

	t.Run("unknown channel", func(t *testing.T) {
		env := newTestEnv(t)
		assert.True(t, errors.Is(env.svc.JoinChannel(ctx, member, "nope"), ErrNotFound))
		assert.True(t, errors.Is(env.svc.LeaveChannel(ctx, member, "nope"), ErrNotFound))
	})

	t.Run("leave when absent is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		g := env.createGroup(t, groupAdmin, "G")
		before := env.raw(t)
		require.NoError(t, env.svc.LeaveChannel(ctx, member, g.Channels[0]))
		assert.Equal(t, before, env.raw(t))
	})
}

// Deactivated users keep their channel memberships but cannot change them.
func TestInactiveUserChannelSelfService(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(svc *Service, channelID string) error
	}{
		{"join", func(svc *Service, channelID string) error { return svc.JoinChannel(ctx, member, channelID) }},
		{"leave", func(svc *Service, channelID string) error { return svc.LeaveChannel(ctx, member, channelID) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			g := env.createGroup(t, groupAdmin, "G")
			c, err := env.svc.CreateChannel(ctx, groupAdmin, g.ID, ChannelInput{Name: "side"})
			require.NoError(t, err)
			require.NoError(t, env.svc.AddMember(ctx, groupAdmin, g.ID, member))
			require.NoError(t, env.svc.JoinChannel(ctx, member, g.Channels[0]))
			_, err = env.svc.SetActive(ctx, superAdmin, member, false)
			require.NoError(t, err)

			target := c.ID
			if tt.name == "leave" {
				target = g.Channels[0]
			}
			before := env.raw(t)
			err = tt.call(env.svc, target)
			assert.True(t, errors.Is(err, ErrPermissionDenied), "got %v", err)
			assert.Equal(t, before, env.raw(t))
		})
	}
}

// A banned user is removed from the channel and cannot rejoin.
func TestBanUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	g := env.createGroup(t, groupAdmin, "G")
	ch := g.Channels[0]
	require.NoError(t, env.svc.AddMember(ctx, groupAdmin, g.ID, member))
	require.NoError(t, env.svc.JoinChannel(ctx, member, ch))

	require.NoError(t, env.svc.BanUser(ctx, groupAdmin, ch, member, "spam"))
	c, err := env.svc.GetChannel(ctx, ch)
	require.NoError(t, err)
	assert.NotContains(t, c.Members, member)
	assert.Contains(t, c.BannedUsers, member)

	err = env.svc.JoinChannel(ctx, member, ch)
	assert.True(t, errors.Is(err, ErrBanned))

	events := env.audit.ofType(audit.EventTypeChannelBan)
	require.Len(t, events, 1)
	assert.Equal(t, groupAdmin, events[0].ActorID)
	assert.Equal(t, member, events[0].Metadata["user_id"])
	assert.Equal(t, "spam", events[0].Metadata["reason"])
	env.requireConsistent(t)

	t.Run("re-ban is a silent no-op", func(t *testing.T) {
		before := env.raw(t)
		require.NoError(t, env.svc.BanUser(ctx, groupAdmin, ch, member, "again"))
		assert.Equal(t, before, env.raw(t))
		assert.Len(t, env.audit.ofType(audit.EventTypeChannelBan), 1)
	})

	t.Run("members cannot ban", func(t *testing.T) {
		err := env.svc.BanUser(ctx, member, ch, groupAdmin, "")
		assert.True(t, errors.Is(err, ErrPermissionDenied))
	})

	t.Run("unban does not re-enroll", func(t *testing.T) {
		require.NoError(t, env.svc.UnbanUser(ctx, groupAdmin, ch, member))
		c, err := env.svc.GetChannel(ctx, ch)
		require.NoError(t, err)
		assert.NotContains(t, c.BannedUsers, member)
		assert.NotContains(t, c.Members, member)
		assert.Len(t, env.audit.ofType(audit.EventTypeChannelUnban), 1)

		before := env.raw(t)
		require.NoError(t, env.svc.UnbanUser(ctx, groupAdmin, ch, member))
		assert.Equal(t, before, env.raw(t))

		require.NoError(t, env.svc.JoinChannel(ctx, member, ch))
	})

	t.Run("stored document keeps sets disjoint", func(t *testing.T) {
		snap, err := env.svc.Repository().LoadChannels(ctx)
		require.NoError(t, err)
		for _, c := range snap {
			for _, id := range c.Members {
				assert.False(t, model.ContainsID(c.BannedUsers, id))
			}
		}
		assert.Contains(t, env.raw(t), env.svc.Repository().Key(repository.CollectionChannels))
	})
}

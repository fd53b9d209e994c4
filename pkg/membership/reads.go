package membership

import (
	"context"
	"sort"

	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/repository"
)

// View runs fn against a consistent snapshot. The snapshot is a private
// copy; changes made to it are discarded.
func (s *Service) View(ctx context.Context, fn func(snap *repository.Snapshot) error) error {
	return s.read(ctx, fn)
}

// Snapshot returns a copy of every collection
func (s *Service) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	var out *repository.Snapshot
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		out = snap
		return nil
	})
	return out, err
}

// GetUser returns the user with id
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		u := snap.User(id)
		if u == nil {
			return NewError(KindNotFound, "GetUser", "user %s not found", id)
		}
		out = u
		return nil
	})
	return out, err
}

// ListUsers returns every user ordered by username
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		out = snap.Users
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

// GetGroup returns the group with id
func (s *Service) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	var out *model.Group
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		g := snap.Group(id)
		if g == nil {
			return NewError(KindNotFound, "GetGroup", "group %s not found", id)
		}
		out = g
		return nil
	})
	return out, err
}

// ListGroups returns every group ordered by name
func (s *Service) ListGroups(ctx context.Context) ([]*model.Group, error) {
	var out []*model.Group
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		out = snap.Groups
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// GetChannel returns the channel with id
func (s *Service) GetChannel(ctx context.Context, id string) (*model.Channel, error) {
	var out *model.Channel
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		c := snap.Channel(id)
		if c == nil {
			return NewError(KindNotFound, "GetChannel", "channel %s not found", id)
		}
		out = c
		return nil
	})
	return out, err
}

// ListChannels returns the channels of a group in the order they were created
func (s *Service) ListChannels(ctx context.Context, groupID string) ([]*model.Channel, error) {
	var out []*model.Channel
	err := s.read(ctx, func(snap *repository.Snapshot) error {
		g := snap.Group(groupID)
		if g == nil {
			return NewError(KindNotFound, "ListChannels", "group %s not found", groupID)
		}
		out = make([]*model.Channel, 0, len(g.Channels))
		for _, cid := range g.Channels {
			if c := snap.Channel(cid); c != nil {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

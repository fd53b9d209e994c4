package repository

import (
	"github.com/platinummonkey/roster/pkg/model"
)

// Snapshot holds every collection at one point in time
type Snapshot struct {
	Users        []*model.User        `json:"users" yaml:"users"`
	Groups       []*model.Group       `json:"groups" yaml:"groups"`
	Channels     []*model.Channel     `json:"channels" yaml:"channels"`
	JoinRequests []*model.JoinRequest `json:"join_requests" yaml:"join_requests"`
}

// Clone returns a deep copy; nothing in the copy aliases the original
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Users:        make([]*model.User, len(s.Users)),
		Groups:       make([]*model.Group, len(s.Groups)),
		Channels:     make([]*model.Channel, len(s.Channels)),
		JoinRequests: make([]*model.JoinRequest, len(s.JoinRequests)),
	}
	for i, u := range s.Users {
		out.Users[i] = u.Clone()
	}
	for i, g := range s.Groups {
		out.Groups[i] = g.Clone()
	}
	for i, c := range s.Channels {
		out.Channels[i] = c.Clone()
	}
	for i, r := range s.JoinRequests {
		out.JoinRequests[i] = r.Clone()
	}
	return out
}

// User finds a user by id
func (s *Snapshot) User(id string) *model.User {
	for _, u := range s.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// UserByUsername finds a user by username
func (s *Snapshot) UserByUsername(username string) *model.User {
	for _, u := range s.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// Group finds a group by id
func (s *Snapshot) Group(id string) *model.Group {
	for _, g := range s.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// GroupByName finds a group by name
func (s *Snapshot) GroupByName(name string) *model.Group {
	for _, g := range s.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Channel finds a channel by id
func (s *Snapshot) Channel(id string) *model.Channel {
	for _, c := range s.Channels {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ChannelsOf returns the channels belonging to groupID in stored order
func (s *Snapshot) ChannelsOf(groupID string) []*model.Channel {
	var out []*model.Channel
	for _, c := range s.Channels {
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out
}

// JoinRequest finds a join request by id
func (s *Snapshot) JoinRequest(id string) *model.JoinRequest {
	for _, r := range s.JoinRequests {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// PendingRequest returns the pending request for (userID, groupID), if any
func (s *Snapshot) PendingRequest(userID, groupID string) *model.JoinRequest {
	for _, r := range s.JoinRequests {
		if r.UserID == userID && r.GroupID == groupID && r.IsPending() {
			return r
		}
	}
	return nil
}

// RemoveGroup drops the group with id from the snapshot
func (s *Snapshot) RemoveGroup(id string) {
	out := s.Groups[:0:0]
	for _, g := range s.Groups {
		if g.ID != id {
			out = append(out, g)
		}
	}
	s.Groups = out
}

// RemoveChannel drops the channel with id from the snapshot
func (s *Snapshot) RemoveChannel(id string) {
	out := s.Channels[:0:0]
	for _, c := range s.Channels {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.Channels = out
}

// RemoveUser drops the user with id from the snapshot
func (s *Snapshot) RemoveUser(id string) {
	out := s.Users[:0:0]
	for _, u := range s.Users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	s.Users = out
}

// RemoveJoinRequests drops every request for which drop returns true
func (s *Snapshot) RemoveJoinRequests(drop func(*model.JoinRequest) bool) {
	out := s.JoinRequests[:0:0]
	for _, r := range s.JoinRequests {
		if !drop(r) {
			out = append(out, r)
		}
	}
	s.JoinRequests = out
}

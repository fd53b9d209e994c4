package model

import (
	"time"
)

// Role is a platform-wide role held by a user
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleGroupAdmin Role = "GroupAdmin"
	RoleMember     Role = "Member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleGroupAdmin, RoleMember:
		return true
	}
	return false
}

// GroupStatus represents the lifecycle state of a group
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "Active"
	GroupStatusInactive GroupStatus = "Inactive"
	GroupStatusPending  GroupStatus = "Pending"
)

// Valid reports whether s is a known group status
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupStatusActive, GroupStatusInactive, GroupStatusPending:
		return true
	}
	return false
}

// ChannelType is the medium of a channel
type ChannelType string

const (
	ChannelTypeText  ChannelType = "Text"
	ChannelTypeVoice ChannelType = "Voice"
	ChannelTypeVideo ChannelType = "Video"
)

// Valid reports whether t is a known channel type
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeText, ChannelTypeVoice, ChannelTypeVideo:
		return true
	}
	return false
}

// RequestType distinguishes the two ways a user can ask to join a group
type RequestType string

const (
	RequestTypeRegisterInterest RequestType = "RegisterInterest"
	RequestTypeRequestInvite    RequestType = "RequestInvite"
)

// Valid reports whether t is a known request type
func (t RequestType) Valid() bool {
	return t == RequestTypeRegisterInterest || t == RequestTypeRequestInvite
}

// RequestStatus is the state of a join request. Approved and Rejected are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// User is a platform account
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	Roles     []Role    `json:"roles" yaml:"roles"`
	Groups    []string  `json:"groups" yaml:"groups"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	c := *u
	c.Roles = append([]Role(nil), u.Roles...)
	c.Groups = CloneIDs(u.Groups)
	return &c
}

// Group is a set of members owning a set of channels
type Group struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description"`
	Status      GroupStatus `json:"status" yaml:"status"`
	CreatedBy   string      `json:"created_by" yaml:"created_by"`
	Admins      []string    `json:"admins" yaml:"admins"`
	Members     []string    `json:"members" yaml:"members"`
	Channels    []string    `json:"channels" yaml:"channels"`
	MaxMembers  int         `json:"max_members,omitempty" yaml:"max_members"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy of the group
func (g *Group) Clone() *Group {
	c := *g
	c.Admins = CloneIDs(g.Admins)
	c.Members = CloneIDs(g.Members)
	c.Channels = CloneIDs(g.Channels)
	return &c
}

// IsFull reports whether the group has reached its capacity
func (g *Group) IsFull() bool {
	return g.MaxMembers > 0 && len(g.Members) >= g.MaxMembers
}

// Channel belongs to exactly one group
type Channel struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description"`
	GroupID     string      `json:"group_id" yaml:"group_id"`
	Type        ChannelType `json:"type" yaml:"type"`
	CreatedBy   string      `json:"created_by" yaml:"created_by"`
	Members     []string    `json:"members" yaml:"members"`
	BannedUsers []string    `json:"banned_users" yaml:"banned_users"`
	MaxMembers  int         `json:"max_members,omitempty" yaml:"max_members"`
	IsActive    bool        `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy of the channel
func (c *Channel) Clone() *Channel {
	cp := *c
	cp.Members = CloneIDs(c.Members)
	cp.BannedUsers = CloneIDs(c.BannedUsers)
	return &cp
}

// IsFull reports whether the channel has reached its capacity
func (c *Channel) IsFull() bool {
	return c.MaxMembers > 0 && len(c.Members) >= c.MaxMembers
}

// JoinRequest is a user's ask to be added to a group
type JoinRequest struct {
	ID          string        `json:"id" yaml:"id"`
	GroupID     string        `json:"group_id" yaml:"group_id"`
	UserID      string        `json:"user_id" yaml:"user_id"`
	RequestType RequestType   `json:"request_type" yaml:"request_type"`
	Status      RequestStatus `json:"status" yaml:"status"`
	Message     string        `json:"message,omitempty" yaml:"message"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	ReviewedBy  string        `json:"reviewed_by,omitempty" yaml:"reviewed_by"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty" yaml:"reviewed_at"`
}

// Clone returns a deep copy of the request
func (r *JoinRequest) Clone() *JoinRequest {
	c := *r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

// IsPending reports whether the request is still awaiting review
func (r *JoinRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

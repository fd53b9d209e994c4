package permissions

import (
	"github.com/platinummonkey/roster/pkg/model"
)

// Action represents an operation an actor wants to perform
type Action string

const (
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionBan           Action = "ban"
	ActionCreateChannel Action = "create_channel"
	ActionPromoteMember Action = "promote_member"
	ActionManageMembers Action = "manage_members"
	ActionReviewRequest Action = "review_request"
	ActionLeave         Action = "leave"
	ActionCreateGroup   Action = "create_group"
	ActionPromoteRole   Action = "promote_role"
	ActionViewAudit     Action = "view_audit"
)

// ownerActions are granted to a GroupAdmin on groups they created
var ownerActions = map[Action]bool{
	ActionEdit:          true,
	ActionDelete:        true,
	ActionBan:           true,
	ActionCreateChannel: true,
	ActionPromoteMember: true,
	ActionManageMembers: true,
	ActionReviewRequest: true,
}

// ResourceKind is the type of thing being acted on
type ResourceKind string

const (
	ResourceGroup    ResourceKind = "group"
	ResourceChannel  ResourceKind = "channel"
	ResourceUser     ResourceKind = "user"
	ResourcePlatform ResourceKind = "platform"
)

// Resource carries the facts about a target the rules need. Build one with
// the constructors below rather than by hand.
type Resource struct {
	Kind ResourceKind `json:"kind"`
	ID   string       `json:"id,omitempty"`

	// GroupID and GroupOwner identify the owning group of a group or channel
	GroupID    string `json:"group_id,omitempty"`
	GroupOwner string `json:"group_owner,omitempty"`

	// GroupMembers is the member set of the owning group
	GroupMembers []string `json:"-"`
}

// GroupResource describes g
func GroupResource(g *model.Group) Resource {
	return Resource{
		Kind:         ResourceGroup,
		ID:           g.ID,
		GroupID:      g.ID,
		GroupOwner:   g.CreatedBy,
		GroupMembers: g.Members,
	}
}

// ChannelResource describes c, which belongs to g
func ChannelResource(c *model.Channel, g *model.Group) Resource {
	r := Resource{Kind: ResourceChannel, ID: c.ID, GroupID: c.GroupID}
	if g != nil {
		r.GroupOwner = g.CreatedBy
		r.GroupMembers = g.Members
	}
	return r
}

// UserResource describes the account u
func UserResource(u *model.User) Resource {
	return Resource{Kind: ResourceUser, ID: u.ID}
}

// PlatformResource describes platform-wide operations such as creating groups
func PlatformResource() Resource {
	return Resource{Kind: ResourcePlatform}
}

// Rule identifies which evaluation rule produced a decision
type Rule string

const (
	RuleInactiveActor Rule = "inactive_actor"
	RuleSuperAdmin    Rule = "super_admin"
	RuleGroupOwner    Rule = "group_owner"
	RuleSelf          Rule = "self"
	RulePlatform      Rule = "platform_role"
	RuleDefaultDeny   Rule = "default_deny"
)

// Decision is the outcome of evaluating a request
type Decision struct {
	Allowed bool   `json:"allowed"`
	Rule    Rule   `json:"rule"`
	Reason  string `json:"reason,omitempty"`
}

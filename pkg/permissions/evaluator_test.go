package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/roster/pkg/model"
)

func user(id string, roles ...model.Role) *model.User {
	return &model.User{ID: id, Username: id, Roles: roles, IsActive: true}
}

func TestCanPerform(t *testing.T) {
	super := user("super", model.RoleSuperAdmin)
	owner := user("owner", model.RoleGroupAdmin)
	otherAdmin := user("other-admin", model.RoleGroupAdmin)
	member := user("member", model.RoleMember)
	inactive := user("inactive", model.RoleSuperAdmin)
	inactive.IsActive = false

	group := &model.Group{ID: "g1", CreatedBy: "owner", Admins: []string{"owner"}, Members: []string{"owner", "member"}}
	channel := &model.Channel{ID: "c1", GroupID: "g1"}

	groupRes := GroupResource(group)
	channelRes := ChannelResource(channel, group)

	tests := []struct {
		name     string
		actor    *model.User
		action   Action
		resource Resource
		want     bool
		rule     Rule
	}{
		{"super admin deletes any group", super, ActionDelete, groupRes, true, RuleSuperAdmin},
		{"super admin views audit", super, ActionViewAudit, PlatformResource(), true, RuleSuperAdmin},
		{"super admin changes roles", super, ActionPromoteRole, UserResource(member), true, RuleSuperAdmin},
		{"inactive super admin denied", inactive, ActionEdit, groupRes, false, RuleInactiveActor},
		{"nil actor denied", nil, ActionEdit, groupRes, false, RuleInactiveActor},

		{"owner edits group", owner, ActionEdit, groupRes, true, RuleGroupOwner},
		{"owner deletes group", owner, ActionDelete, groupRes, true, RuleGroupOwner},
		{"owner bans in channel", owner, ActionBan, channelRes, true, RuleGroupOwner},
		{"owner creates channel", owner, ActionCreateChannel, groupRes, true, RuleGroupOwner},
		{"owner promotes", owner, ActionPromoteMember, groupRes, true, RuleGroupOwner},
		{"owner manages members", owner, ActionManageMembers, groupRes, true, RuleGroupOwner},
		{"owner reviews requests", owner, ActionReviewRequest, groupRes, true, RuleGroupOwner},
		{"owner cannot view audit via group", owner, ActionViewAudit, groupRes, false, RuleGroupOwner},
		{"owner leave is not an owner action", owner, ActionLeave, groupRes, false, RuleGroupOwner},

		{"other group admin cannot delete", otherAdmin, ActionDelete, groupRes, false, RuleDefaultDeny},
		{"other group admin cannot ban", otherAdmin, ActionBan, channelRes, false, RuleDefaultDeny},
		{"group admin creates groups", otherAdmin, ActionCreateGroup, PlatformResource(), true, RulePlatform},
		{"group admin cannot change roles", otherAdmin, ActionPromoteRole, UserResource(member), false, RuleDefaultDeny},

		{"member edits self", member, ActionEdit, UserResource(member), true, RuleSelf},
		{"member deletes self", member, ActionDelete, UserResource(member), true, RuleSelf},
		{"member cannot edit others", member, ActionEdit, UserResource(owner), false, RuleDefaultDeny},
		{"member leaves own group", member, ActionLeave, groupRes, true, RuleSelf},
		{"non-member cannot leave", otherAdmin, ActionLeave, groupRes, false, RuleDefaultDeny},
		{"member cannot delete group", member, ActionDelete, groupRes, false, RuleDefaultDeny},
		{"member cannot ban", member, ActionBan, channelRes, false, RuleDefaultDeny},
		{"member cannot create groups", member, ActionCreateGroup, PlatformResource(), false, RuleDefaultDeny},
		{"member cannot review", member, ActionReviewRequest, groupRes, false, RuleDefaultDeny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.actor, tt.action, tt.resource))
			d := Explain(tt.actor, tt.action, tt.resource)
			assert.Equal(t, tt.want, d.Allowed)
			assert.Equal(t, tt.rule, d.Rule)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestOwnershipRequiresGroupAdminRole(t *testing.T) {
	// A creator demoted to Member no longer gets owner rights
	creator := user("creator", model.RoleMember)
	group := &model.Group{ID: "g1", CreatedBy: "creator", Members: []string{"creator"}}

	assert.False(t, CanPerform(creator, ActionDelete, GroupResource(group)))
	assert.True(t, CanPerform(creator, ActionLeave, GroupResource(group)))
}

func TestChannelResourceWithoutGroup(t *testing.T) {
	owner := user("owner", model.RoleGroupAdmin)
	res := ChannelResource(&model.Channel{ID: "c1", GroupID: "g1"}, nil)
	assert.False(t, CanPerform(owner, ActionBan, res))
}

func TestUserResourceNeverOwned(t *testing.T) {
	admin := user("admin", model.RoleGroupAdmin)
	target := user("target", model.RoleMember)
	res := UserResource(target)
	res.GroupOwner = "admin"
	assert.False(t, CanPerform(admin, ActionDelete, res))
}

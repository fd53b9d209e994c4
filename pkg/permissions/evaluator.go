package permissions

import (
	"fmt"

	"github.com/platinummonkey/roster/pkg/model"
)

// CanPerform reports whether actor may perform action on resource
func CanPerform(actor *model.User, action Action, resource Resource) bool {
	return Explain(actor, action, resource).Allowed
}

// Explain evaluates the rules in order and returns the first that matches
func Explain(actor *model.User, action Action, resource Resource) Decision {
	if actor == nil || !actor.IsActive {
		return Decision{Rule: RuleInactiveActor, Reason: "actor is missing or inactive"}
	}

	if actor.HasRole(model.RoleSuperAdmin) {
		return Decision{Allowed: true, Rule: RuleSuperAdmin, Reason: "granted by SuperAdmin role"}
	}

	if actor.HasRole(model.RoleGroupAdmin) && ownsGroupOf(actor, resource) {
		if ownerActions[action] {
			return Decision{Allowed: true, Rule: RuleGroupOwner,
				Reason: fmt.Sprintf("group admin owns group %s", resource.GroupID)}
		}
		return Decision{Rule: RuleGroupOwner,
			Reason: fmt.Sprintf("%s is not granted to group owners", action)}
	}

	switch {
	case resource.Kind == ResourceUser && resource.ID == actor.ID &&
		(action == ActionEdit || action == ActionDelete):
		return Decision{Allowed: true, Rule: RuleSelf, Reason: "actor acting on own account"}
	case resource.Kind == ResourceGroup && action == ActionLeave &&
		model.ContainsID(resource.GroupMembers, actor.ID):
		return Decision{Allowed: true, Rule: RuleSelf, Reason: "actor leaving own group"}
	}

	if resource.Kind == ResourcePlatform && action == ActionCreateGroup &&
		actor.HasRole(model.RoleGroupAdmin) {
		return Decision{Allowed: true, Rule: RulePlatform, Reason: "granted by GroupAdmin role"}
	}

	return Decision{Rule: RuleDefaultDeny, Reason: "no matching rule"}
}

func ownsGroupOf(actor *model.User, resource Resource) bool {
	if resource.Kind != ResourceGroup && resource.Kind != ResourceChannel {
		return false
	}
	return resource.GroupOwner != "" && resource.GroupOwner == actor.ID
}

package membership

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/repository"
)

// maxReportedProblems bounds the message of a failed verification
const maxReportedProblems = 20

// Verify checks every cross-collection invariant of snap and returns an
// InvariantViolation listing what is wrong, or nil.
func Verify(snap *repository.Snapshot) error {
	problems := Problems(snap)
	if len(problems) == 0 {
		return nil
	}
	shown := problems
	if len(shown) > maxReportedProblems {
		shown = append(shown[:maxReportedProblems:maxReportedProblems],
			fmt.Sprintf("and %d more", len(problems)-maxReportedProblems))
	}
	return NewError(KindInvariantViolation, "verify", "%s", strings.Join(shown, "; "))
}

// Problems returns a description of every invariant snap violates
func Problems(snap *repository.Snapshot) []string {
	var problems []string
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	users := make(map[string]*model.User, len(snap.Users))
	usernames := make(map[string]bool, len(snap.Users))
	for _, u := range snap.Users {
		if _, dup := users[u.ID]; dup {
			report("duplicate user id %s", u.ID)
		}
		users[u.ID] = u
		if usernames[u.Username] {
			report("duplicate username %q", u.Username)
		}
		usernames[u.Username] = true
	}

	groups := make(map[string]*model.Group, len(snap.Groups))
	groupNames := make(map[string]bool, len(snap.Groups))
	for _, g := range snap.Groups {
		if _, dup := groups[g.ID]; dup {
			report("duplicate group id %s", g.ID)
		}
		groups[g.ID] = g
		if groupNames[g.Name] {
			report("duplicate group name %q", g.Name)
		}
		groupNames[g.Name] = true
	}

	channels := make(map[string]*model.Channel, len(snap.Channels))
	channelNames := make(map[string]bool, len(snap.Channels))
	for _, c := range snap.Channels {
		if _, dup := channels[c.ID]; dup {
			report("duplicate channel id %s", c.ID)
		}
		channels[c.ID] = c
		nameKey := c.GroupID + "\x00" + c.Name
		if channelNames[nameKey] {
			report("duplicate channel name %q in group %s", c.Name, c.GroupID)
		}
		channelNames[nameKey] = true
	}

	for _, u := range snap.Users {
		if len(u.Roles) == 0 {
			report("user %s has no roles", u.ID)
		}
		for _, r := range u.Roles {
			if !r.Valid() {
				report("user %s has unknown role %q", u.ID, r)
			}
		}
		if model.HasDuplicates(u.Groups) {
			report("user %s lists a group twice", u.ID)
		}
		for _, gid := range u.Groups {
			g, ok := groups[gid]
			if !ok {
				report("user %s references missing group %s", u.ID, gid)
				continue
			}
			if !model.ContainsID(g.Members, u.ID) {
				report("user %s lists group %s but is not a member", u.ID, gid)
			}
		}
	}

	for _, g := range snap.Groups {
		if !g.Status.Valid() {
			report("group %s has unknown status %q", g.ID, g.Status)
		}
		if model.HasDuplicates(g.Members) || model.HasDuplicates(g.Admins) || model.HasDuplicates(g.Channels) {
			report("group %s has a duplicate set entry", g.ID)
		}
		if g.MaxMembers < 0 || (g.MaxMembers > 0 && len(g.Members) > g.MaxMembers) {
			report("group %s exceeds its capacity", g.ID)
		}
		for _, uid := range g.Members {
			u, ok := users[uid]
			if !ok {
				report("group %s references missing member %s", g.ID, uid)
				continue
			}
			if !model.ContainsID(u.Groups, g.ID) {
				report("member %s of group %s does not list the group", uid, g.ID)
			}
		}
		for _, uid := range g.Admins {
			if !model.ContainsID(g.Members, uid) {
				report("admin %s of group %s is not a member", uid, g.ID)
			}
		}
		if !model.ContainsID(g.Admins, g.CreatedBy) || !model.ContainsID(g.Members, g.CreatedBy) {
			report("creator %s of group %s must be an admin and a member", g.CreatedBy, g.ID)
		}
		for _, cid := range g.Channels {
			c, ok := channels[cid]
			if !ok {
				report("group %s references missing channel %s", g.ID, cid)
				continue
			}
			if c.GroupID != g.ID {
				report("group %s lists channel %s owned by group %s", g.ID, cid, c.GroupID)
			}
		}
	}

	for _, c := range snap.Channels {
		if !c.Type.Valid() {
			report("channel %s has unknown type %q", c.ID, c.Type)
		}
		if model.HasDuplicates(c.Members) || model.HasDuplicates(c.BannedUsers) {
			report("channel %s has a duplicate set entry", c.ID)
		}
		if c.MaxMembers < 0 || (c.MaxMembers > 0 && len(c.Members) > c.MaxMembers) {
			report("channel %s exceeds its capacity", c.ID)
		}
		g, ok := groups[c.GroupID]
		if !ok {
			report("channel %s references missing group %s", c.ID, c.GroupID)
			continue
		}
		if !model.ContainsID(g.Channels, c.ID) {
			report("group %s does not list its channel %s", g.ID, c.ID)
		}
		for _, uid := range c.Members {
			if _, ok := users[uid]; !ok {
				report("channel %s references missing member %s", c.ID, uid)
			}
			if !model.ContainsID(g.Members, uid) {
				report("channel %s member %s is not in group %s", c.ID, uid, g.ID)
			}
			if model.ContainsID(c.BannedUsers, uid) {
				report("user %s is both a member of and banned from channel %s", uid, c.ID)
			}
		}
		for _, uid := range c.BannedUsers {
			if _, ok := users[uid]; !ok {
				report("channel %s bans missing user %s", c.ID, uid)
			}
		}
	}

	requestIDs := make(map[string]bool, len(snap.JoinRequests))
	pending := make(map[string]bool)
	for _, r := range snap.JoinRequests {
		if requestIDs[r.ID] {
			report("duplicate join request id %s", r.ID)
		}
		requestIDs[r.ID] = true
		if !r.RequestType.Valid() {
			report("join request %s has unknown type %q", r.ID, r.RequestType)
		}
		if _, ok := users[r.UserID]; !ok {
			report("join request %s references missing user %s", r.ID, r.UserID)
		}
		switch r.Status {
		case model.RequestStatusPending:
			if _, ok := groups[r.GroupID]; !ok {
				report("pending join request %s references missing group %s", r.ID, r.GroupID)
			}
			key := r.UserID + "\x00" + r.GroupID
			if pending[key] {
				report("user %s has more than one pending request for group %s", r.UserID, r.GroupID)
			}
			pending[key] = true
		case model.RequestStatusApproved, model.RequestStatusRejected:
		default:
			report("join request %s has unknown status %q", r.ID, r.Status)
		}
	}

	return problems
}

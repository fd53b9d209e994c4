package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/membership"
)

// MemberRequest names the user a membership or admin change applies to
type MemberRequest struct {
	UserID string `json:"user_id"`
}

// memberOp is a group membership operation on one user
type memberOp func(ctx context.Context, actorID, groupID, userID string) error

// createGroup handles POST /groups
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req membership.GroupInput
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	group, err := s.svc.CreateGroup(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, group)
}

// listGroups handles GET /groups
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.ListGroups(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, groups)
}

// getGroup handles GET /groups/{id}
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	group, err := s.svc.GetGroup(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, group)
}

// updateGroup handles PATCH /groups/{id}
func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var patch membership.GroupPatch
	if !httputil.DecodeBody(w, r, &patch) {
		return
	}

	group, err := s.svc.UpdateGroup(r.Context(), actor, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, group)
}

// deleteGroup handles DELETE /groups/{id}
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteGroup(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// addMember handles POST /groups/{id}/members
func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	s.memberChange(w, r, s.svc.AddMember)
}

// promoteMember handles POST /groups/{id}/admins
func (s *Server) promoteMember(w http.ResponseWriter, r *http.Request) {
	s.memberChange(w, r, s.svc.PromoteMember)
}

// memberChange decodes a MemberRequest body and applies op to the group
func (s *Server) memberChange(w http.ResponseWriter, r *http.Request, op memberOp) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req MemberRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}
	if !httputil.Required(w, "user_id", req.UserID) {
		return
	}

	if err := op(r.Context(), actor, id, req.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// removeMember handles DELETE /groups/{id}/members/{user_id}
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	s.memberPathChange(w, r, s.svc.RemoveMember)
}

// demoteAdmin handles DELETE /groups/{id}/admins/{user_id}
func (s *Server) demoteAdmin(w http.ResponseWriter, r *http.Request) {
	s.memberPathChange(w, r, s.svc.DemoteAdmin)
}

// memberPathChange applies op to the user named in the path
func (s *Server) memberPathChange(w http.ResponseWriter, r *http.Request, op memberOp) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}
	userID, ok := httputil.PathVar(w, r, "user_id")
	if !ok {
		return
	}

	if err := op(r.Context(), actor, id, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// leaveGroup handles POST /groups/{id}/leave
func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.LeaveGroup(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

package api

import (
	"net/http"

	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/membership"
	"github.com/platinummonkey/roster/pkg/model"
)

// SetRolesRequest is the body of PUT /users/{id}/roles
type SetRolesRequest struct {
	Roles []model.Role `json:"roles"`
}

// SetActiveRequest is the body of PUT /users/{id}/active
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// registerUser handles POST /users. The actor header is optional here:
// without it the request is a self sign-up.
func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var req membership.UserInput
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	user, err := s.svc.RegisterUser(r.Context(), r.Header.Get(ActorHeader), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, user)
}

// listUsers handles GET /users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, users)
}

// getUser handles GET /users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	user, err := s.svc.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// updateProfile handles PATCH /users/{id}
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var patch membership.ProfilePatch
	if !httputil.DecodeBody(w, r, &patch) {
		return
	}

	user, err := s.svc.UpdateProfile(r.Context(), actor, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /users/{id}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteUser(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// setRoles handles PUT /users/{id}/roles
func (s *Server) setRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req SetRolesRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	user, err := s.svc.SetRoles(r.Context(), actor, id, req.Roles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// setActive handles PUT /users/{id}/active
func (s *Server) setActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	user, err := s.svc.SetActive(r.Context(), actor, id, req.Active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// listUserRequests handles GET /users/{id}/join-requests. Users see only
// their own requests.
func (s *Server) listUserRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}
	if actor != id {
		httputil.WriteErrorResponse(w, http.StatusForbidden, httputil.ErrorResponse{
			Error: "join requests are visible only to their requester",
			Kind:  string(membership.KindPermissionDenied),
		})
		return
	}

	reqs, err := s.requests.ListForUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, reqs)
}

package api

import (
	"net/http"

	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/membership"
)

// BanRequest is the body of POST /channels/{id}/bans
type BanRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

// createChannel handles POST /groups/{id}/channels
func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req membership.ChannelInput
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	channel, err := s.svc.CreateChannel(r.Context(), actor, groupID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, channel)
}

// listChannels handles GET /groups/{id}/channels
func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	channels, err := s.svc.ListChannels(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, channels)
}

// getChannel handles GET /channels/{id}
func (s *Server) getChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	channel, err := s.svc.GetChannel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, channel)
}

// updateChannel handles PATCH /channels/{id}
func (s *Server) updateChannel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var patch membership.ChannelPatch
	if !httputil.DecodeBody(w, r, &patch) {
		return
	}

	channel, err := s.svc.UpdateChannel(r.Context(), actor, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, channel)
}

// deleteChannel handles DELETE /channels/{id}
func (s *Server) deleteChannel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.DeleteChannel(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// joinChannel handles POST /channels/{id}/join
func (s *Server) joinChannel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.JoinChannel(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// leaveChannel handles POST /channels/{id}/leave
func (s *Server) leaveChannel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	if err := s.svc.LeaveChannel(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// banUser handles POST /channels/{id}/bans
func (s *Server) banUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req BanRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}
	if !httputil.Required(w, "user_id", req.UserID) {
		return
	}

	if err := s.svc.BanUser(r.Context(), actor, id, req.UserID, req.Reason); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// unbanUser handles DELETE /channels/{id}/bans/{user_id}
func (s *Server) unbanUser(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.UnbanUser(r.Context(), actor, id, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/model"
)

// SubmitRequest is the body of POST /groups/{id}/join-requests
type SubmitRequest struct {
	RequestType model.RequestType `json:"request_type"`
	Message     string            `json:"message,omitempty"`
}

// submitRequest handles POST /groups/{id}/join-requests
func (s *Server) submitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	var req SubmitRequest
	if !httputil.DecodeBody(w, r, &req) {
		return
	}

	jr, err := s.requests.Submit(r.Context(), actor, groupID, req.RequestType, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, jr)
}

// listPendingRequests handles GET /groups/{id}/join-requests
func (s *Server) listPendingRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	reqs, err := s.requests.ListPending(r.Context(), actor, groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, reqs)
}

// approveRequest handles POST /join-requests/{id}/approve
func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveRequest(w, r, s.requests.Approve)
}

// rejectRequest handles POST /join-requests/{id}/reject
func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveRequest(w, r, s.requests.Reject)
}

// cancelRequest handles POST /join-requests/{id}/cancel
func (s *Server) cancelRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveRequest(w, r, s.requests.Cancel)
}

// resolveRequest applies a review transition and returns the updated request
func (s *Server) resolveRequest(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, requestID string) (*model.JoinRequest, error)) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathVar(w, r, "id")
	if !ok {
		return
	}

	jr, err := op(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, jr)
}

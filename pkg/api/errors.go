package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/membership"
	"github.com/platinummonkey/roster/pkg/observability"
	"github.com/platinummonkey/roster/pkg/permissions"
)

// statusForKind maps a rejection kind to its HTTP status
func statusForKind(kind membership.Kind) int {
	switch kind {
	case membership.KindPermissionDenied, membership.KindBanned:
		return http.StatusForbidden
	case membership.KindNotFound:
		return http.StatusNotFound
	case membership.KindNameConflict, membership.KindAlreadyMember, membership.KindDuplicateRequest,
		membership.KindNotEmpty, membership.KindHasMembers:
		return http.StatusConflict
	case membership.KindInvariantViolation, membership.KindInvalidStateTransition,
		membership.KindChannelFull, membership.KindGroupFull, membership.KindNotGroupMember:
		return http.StatusUnprocessableEntity
	case membership.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as {"error", "kind"}. Unkinded errors are
// store failures and are logged rather than echoed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var merr *membership.Error
	if !errors.As(err, &merr) {
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, httputil.ErrorResponse{
			Error: "internal server error",
		})
		return
	}

	httputil.WriteErrorResponse(w, statusForKind(merr.Kind), httputil.ErrorResponse{
		Error: merr.Error(),
		Kind:  string(merr.Kind),
	})
}

// actorID returns the caller's user id, writing 401 when the header is missing
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(ActorHeader)
	if id == "" {
		httputil.WriteUnauthorized(w, ActorHeader+" header is required")
		return "", false
	}
	return id, true
}

// authorizeAudit admits callers holding the ViewAudit permission
func (s *Server) authorizeAudit(w http.ResponseWriter, r *http.Request) bool {
	id, ok := actorID(w, r)
	if !ok {
		return false
	}

	actor, err := s.svc.GetUser(r.Context(), id)
	if err != nil {
		if membership.IsKind(err, membership.KindNotFound) {
			err = membership.NewError(membership.KindPermissionDenied, "ViewAudit", "unknown actor %s", id)
		}
		writeServiceError(w, r, err)
		return false
	}

	decision := permissions.Explain(actor, permissions.ActionViewAudit, permissions.PlatformResource())
	if !decision.Allowed {
		writeServiceError(w, r, membership.NewError(membership.KindPermissionDenied, "ViewAudit",
			"user %s may not view the audit log", id))
		return false
	}
	return true
}

// Package joinrequests implements the join-request state machine. A request
// starts Pending and is resolved exactly once, to Approved or Rejected.
// Approval adds the requester to the group in the same transaction.
package joinrequests

import (
	"context"
	"sort"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/membership"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/permissions"
	"github.com/platinummonkey/roster/pkg/repository"
)

var (
	writeRequests = []repository.Collection{repository.CollectionJoinRequests}
	writeApproval = []repository.Collection{
		repository.CollectionUsers,
		repository.CollectionGroups,
		repository.CollectionJoinRequests,
	}
)

// Workflow runs join-request transitions through the membership service
type Workflow struct {
	svc *membership.Service
}

// NewWorkflow creates a workflow over svc
func NewWorkflow(svc *membership.Service) *Workflow {
	return &Workflow{svc: svc}
}

// Submit files a Pending request from userID to join groupID. An empty
// requestType means RequestInvite.
func (w *Workflow) Submit(ctx context.Context, userID, groupID string, requestType model.RequestType, message string) (*model.JoinRequest, error) {
	if requestType == "" {
		requestType = model.RequestTypeRequestInvite
	}

	var created *model.JoinRequest
	err := w.svc.Transact(ctx, "SubmitJoinRequest", writeRequests, func(tx *membership.Tx) error {
		if !requestType.Valid() {
			return tx.Fail(membership.KindInvalidInput, "unknown request type %q", requestType)
		}
		user, err := tx.ActiveUser(userID)
		if err != nil {
			return err
		}
		group, err := tx.Group(groupID)
		if err != nil {
			return err
		}
		if model.ContainsID(group.Members, user.ID) {
			return tx.Fail(membership.KindAlreadyMember, "user %s is already a member of group %s", user.ID, group.ID)
		}
		snap := tx.Snapshot()
		if existing := snap.PendingRequest(user.ID, group.ID); existing != nil {
			return tx.Fail(membership.KindDuplicateRequest, "request %s is already pending for user %s and group %s", existing.ID, user.ID, group.ID)
		}

		req := &model.JoinRequest{
			ID:          tx.NewID(),
			GroupID:     group.ID,
			UserID:      user.ID,
			RequestType: requestType,
			Status:      model.RequestStatusPending,
			Message:     message,
			CreatedAt:   tx.Now(),
		}
		snap.JoinRequests = append(snap.JoinRequests, req)
		tx.MarkDirty(repository.CollectionJoinRequests)
		tx.Audit(requestEvent(audit.EventTypeJoinRequestSubmit, user.ID, req, "submitted join request"))
		created = req.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve resolves a Pending request as Approved and adds the requester to
// the group. If the member cannot be added the request stays Pending.
func (w *Workflow) Approve(ctx context.Context, actorID, requestID string) (*model.JoinRequest, error) {
	var resolved *model.JoinRequest
	err := w.svc.Transact(ctx, "ApproveJoinRequest", writeApproval, func(tx *membership.Tx) error {
		actor, req, group, err := review(tx, actorID, requestID)
		if err != nil {
			return err
		}
		user, err := tx.User(req.UserID)
		if err != nil {
			return err
		}
		if err := tx.AddMember(group, user); err != nil {
			return err
		}

		resolve(tx, req, model.RequestStatusApproved, actor.ID)
		tx.Audit(requestEvent(audit.EventTypeJoinRequestApprove, actor.ID, req, "approved join request"))
		resolved = req.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Reject resolves a Pending request as Rejected
func (w *Workflow) Reject(ctx context.Context, actorID, requestID string) (*model.JoinRequest, error) {
	var resolved *model.JoinRequest
	err := w.svc.Transact(ctx, "RejectJoinRequest", writeRequests, func(tx *membership.Tx) error {
		actor, req, _, err := review(tx, actorID, requestID)
		if err != nil {
			return err
		}

		resolve(tx, req, model.RequestStatusRejected, actor.ID)
		tx.Audit(requestEvent(audit.EventTypeJoinRequestReject, actor.ID, req, "rejected join request"))
		resolved = req.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Cancel lets the requester withdraw a Pending request. The request is
// recorded as Rejected by the requester.
func (w *Workflow) Cancel(ctx context.Context, userID, requestID string) (*model.JoinRequest, error) {
	var resolved *model.JoinRequest
	err := w.svc.Transact(ctx, "CancelJoinRequest", writeRequests, func(tx *membership.Tx) error {
		user, err := tx.Actor(userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return tx.Fail(membership.KindPermissionDenied, "user %s is inactive", user.ID)
		}
		req, err := pendingRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != user.ID {
			return tx.Fail(membership.KindPermissionDenied, "only the requester may cancel request %s", req.ID)
		}

		resolve(tx, req, model.RequestStatusRejected, user.ID)
		tx.Audit(requestEvent(audit.EventTypeJoinRequestCancel, user.ID, req, "cancelled join request"))
		resolved = req.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ListPending returns the Pending requests for a group, oldest first
func (w *Workflow) ListPending(ctx context.Context, actorID, groupID string) ([]*model.JoinRequest, error) {
	out := []*model.JoinRequest{}
	err := w.svc.View(ctx, func(snap *repository.Snapshot) error {
		actor := snap.User(actorID)
		if actor == nil {
			return membership.NewError(membership.KindPermissionDenied, "ListPendingJoinRequests", "unknown actor %s", actorID)
		}
		group := snap.Group(groupID)
		if group == nil {
			return membership.NewError(membership.KindNotFound, "ListPendingJoinRequests", "group %s not found", groupID)
		}
		decision := permissions.Explain(actor, permissions.ActionReviewRequest, permissions.GroupResource(group))
		if !decision.Allowed {
			return membership.NewError(membership.KindPermissionDenied, "ListPendingJoinRequests",
				"%s may not review requests for group %s (%s)", actor.ID, group.ID, decision.Reason)
		}
		for _, r := range snap.JoinRequests {
			if r.GroupID == group.ID && r.IsPending() {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByCreated(out)
	return out, nil
}

// ListForUser returns every request filed by userID, oldest first
func (w *Workflow) ListForUser(ctx context.Context, userID string) ([]*model.JoinRequest, error) {
	out := []*model.JoinRequest{}
	err := w.svc.View(ctx, func(snap *repository.Snapshot) error {
		if snap.User(userID) == nil {
			return membership.NewError(membership.KindNotFound, "ListJoinRequests", "user %s not found", userID)
		}
		for _, r := range snap.JoinRequests {
			if r.UserID == userID {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByCreated(out)
	return out, nil
}

// review loads a Pending request and checks the actor may review it
func review(tx *membership.Tx, actorID, requestID string) (*model.User, *model.JoinRequest, *model.Group, error) {
	actor, err := tx.Actor(actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	req, err := pendingRequest(tx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	group, err := tx.Group(req.GroupID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := tx.Require(actor, permissions.ActionReviewRequest, permissions.GroupResource(group)); err != nil {
		return nil, nil, nil, err
	}
	return actor, req, group, nil
}

func pendingRequest(tx *membership.Tx, requestID string) (*model.JoinRequest, error) {
	req := tx.Snapshot().JoinRequest(requestID)
	if req == nil {
		return nil, tx.Fail(membership.KindNotFound, "join request %s not found", requestID)
	}
	if !req.IsPending() {
		return nil, tx.Fail(membership.KindInvalidStateTransition, "join request %s is already %s", req.ID, req.Status)
	}
	return req, nil
}

func resolve(tx *membership.Tx, req *model.JoinRequest, status model.RequestStatus, by string) {
	now := tx.Now()
	req.Status = status
	req.ReviewedBy = by
	req.ReviewedAt = &now
	tx.MarkDirty(repository.CollectionJoinRequests)
}

func requestEvent(eventType audit.EventType, actorID string, req *model.JoinRequest, message string) *audit.AuditEvent {
	event := audit.NewEvent(eventType, actorID, audit.ResourceTypeJoinRequest, req.ID, message)
	event.Metadata["group_id"] = req.GroupID
	event.Metadata["user_id"] = req.UserID
	event.Metadata["request_type"] = string(req.RequestType)
	return event
}

func sortByCreated(reqs []*model.JoinRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}

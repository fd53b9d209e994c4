package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/observability"
	"github.com/platinummonkey/roster/pkg/permissions"
	"github.com/platinummonkey/roster/pkg/repository"
)

var tracer = otel.Tracer("roster/membership")

// Tx is a staged change set. Mutations are made directly on Snapshot(); the
// collections named with MarkDirty are persisted together if the
// transaction function returns nil.
type Tx struct {
	ctx      context.Context
	op       string
	svc      *Service
	snap     *repository.Snapshot
	writable map[repository.Collection]bool
	dirty    map[repository.Collection]bool
	events   []*audit.AuditEvent
	now      time.Time
}

// Context returns the transaction's context
func (tx *Tx) Context() context.Context { return tx.ctx }

// Snapshot returns the staged state
func (tx *Tx) Snapshot() *repository.Snapshot { return tx.snap }

// Now returns the timestamp applied to every change in the transaction
func (tx *Tx) Now() time.Time { return tx.now }

// NewID returns a fresh entity id
func (tx *Tx) NewID() string { return tx.svc.newID() }

// MarkDirty schedules c to be persisted on commit
func (tx *Tx) MarkDirty(collections ...repository.Collection) {
	for _, c := range collections {
		tx.dirty[c] = true
	}
}

// Audit queues an event to be logged once the transaction commits
func (tx *Tx) Audit(event *audit.AuditEvent) {
	tx.events = append(tx.events, event)
}

// Fail builds an *Error for this transaction's operation
func (tx *Tx) Fail(kind Kind, format string, args ...interface{}) error {
	return NewError(kind, tx.op, format, args...)
}

// Actor resolves the acting user. An unknown actor is denied.
func (tx *Tx) Actor(id string) (*model.User, error) {
	u := tx.snap.User(id)
	if u == nil {
		return nil, tx.Fail(KindPermissionDenied, "unknown actor %s", id)
	}
	return u, nil
}

// ActiveUser resolves a user acting on their own behalf. A missing user is
// NotFound; a deactivated one is denied.
func (tx *Tx) ActiveUser(id string) (*model.User, error) {
	u, err := tx.User(id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, tx.Fail(KindPermissionDenied, "user %s is inactive", id)
	}
	return u, nil
}

// User resolves a user or fails with NotFound
func (tx *Tx) User(id string) (*model.User, error) {
	u := tx.snap.User(id)
	if u == nil {
		return nil, tx.Fail(KindNotFound, "user %s not found", id)
	}
	return u, nil
}

// Group resolves a group or fails with NotFound
func (tx *Tx) Group(id string) (*model.Group, error) {
	g := tx.snap.Group(id)
	if g == nil {
		return nil, tx.Fail(KindNotFound, "group %s not found", id)
	}
	return g, nil
}

// Channel resolves a channel or fails with NotFound
func (tx *Tx) Channel(id string) (*model.Channel, error) {
	c := tx.snap.Channel(id)
	if c == nil {
		return nil, tx.Fail(KindNotFound, "channel %s not found", id)
	}
	return c, nil
}

// Require fails with PermissionDenied unless actor may perform action on resource
func (tx *Tx) Require(actor *model.User, action permissions.Action, resource permissions.Resource) error {
	decision := permissions.Explain(actor, action, resource)
	if decision.Allowed {
		return nil
	}
	return tx.Fail(KindPermissionDenied, "%s may not %s %s %s (%s)",
		actor.ID, action, resource.Kind, resource.ID, decision.Reason)
}

// AddMember adds user to group, keeping both sides of the reference in step.
// Capacity and duplicate membership are rejected.
func (tx *Tx) AddMember(group *model.Group, user *model.User) error {
	if model.ContainsID(group.Members, user.ID) {
		return tx.Fail(KindAlreadyMember, "user %s is already a member of group %s", user.ID, group.ID)
	}
	if group.IsFull() {
		return tx.Fail(KindGroupFull, "group %s has reached its limit of %d members", group.ID, group.MaxMembers)
	}
	group.Members = model.AddID(group.Members, user.ID)
	group.UpdatedAt = tx.now
	user.Groups = model.AddID(user.Groups, group.ID)
	user.UpdatedAt = tx.now
	tx.MarkDirty(repository.CollectionUsers, repository.CollectionGroups)
	return nil
}

// Transact runs fn under locks covering write (write-locked) and every other
// collection (read-locked). If fn returns nil the dirty collections are
// verified (when enabled) and persisted together; queued audit events are
// then logged. If fn or the commit fails nothing is persisted.
func (s *Service) Transact(ctx context.Context, op string, write []repository.Collection, fn func(tx *Tx) error) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "membership."+op, trace.WithAttributes(
		attribute.String("operation", op),
	))
	defer span.End()

	events, err := s.transact(ctx, op, write, fn)
	s.finish(ctx, span, op, start, err)
	if err != nil {
		return err
	}

	s.emit(ctx, events)
	return nil
}

func (s *Service) transact(ctx context.Context, op string, write []repository.Collection, fn func(tx *Tx) error) ([]*audit.AuditEvent, error) {
	release := s.locks.acquire(write)
	defer release()

	snap, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	tx := &Tx{
		ctx:      ctx,
		op:       op,
		svc:      s,
		snap:     snap,
		writable: make(map[repository.Collection]bool, len(write)),
		dirty:    make(map[repository.Collection]bool),
		now:      s.now(),
	}
	for _, c := range write {
		tx.writable[c] = true
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	var dirty []repository.Collection
	for _, c := range repository.AllCollections {
		if !tx.dirty[c] {
			continue
		}
		if !tx.writable[c] {
			return nil, fmt.Errorf("operation %s modified %s without a write lock", op, c)
		}
		dirty = append(dirty, c)
	}
	if len(dirty) == 0 {
		return tx.events, nil
	}

	if s.cfg.VerifyInvariants {
		if problems := Problems(snap); len(problems) > 0 {
			if s.metrics != nil {
				s.metrics.InvariantFailures.WithLabelValues(op).Inc()
			}
			s.logger.WithField("operation", op).WithField("problems", problems).Error("commit rejected by invariant verifier")
			return nil, NewError(KindInvariantViolation, op, "%s", problems[0])
		}
	}

	if err := s.repo.SaveBatch(ctx, snap, dirty...); err != nil {
		return nil, err
	}

	if tx.dirty[repository.CollectionJoinRequests] && s.metrics != nil {
		pending := 0
		for _, r := range snap.JoinRequests {
			if r.IsPending() {
				pending++
			}
		}
		s.metrics.PendingJoinRequests.Set(float64(pending))
	}

	return tx.events, nil
}

// read runs fn against a consistent snapshot under read locks
func (s *Service) read(ctx context.Context, fn func(snap *repository.Snapshot) error) error {
	release := s.locks.acquire(nil)
	defer release()

	snap, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	return fn(snap)
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	logger := observability.UpdateLoggerWithTraceContext(ctx, s.logger.WithField("operation", op))
	if reqID := observability.GetRequestID(ctx); reqID != "" {
		logger = logger.WithField("request_id", reqID)
	}

	outcome := "success"
	var merr *Error
	switch {
	case err == nil:
		logger.Debug("operation committed")
	case errors.As(err, &merr):
		outcome = string(merr.Kind)
		span.SetAttributes(attribute.String("error.kind", outcome))
		logger.WithField("kind", outcome).WithError(err).Info("operation rejected")
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Error("operation failed")
	}
	s.metrics.RecordOperation(op, outcome, time.Since(start))
}

func (s *Service) emit(ctx context.Context, events []*audit.AuditEvent) {
	reqID := observability.GetRequestID(ctx)
	for _, event := range events {
		if event.RequestID == "" {
			event.RequestID = reqID
		}
		if err := s.audit.Log(ctx, event); err != nil {
			s.logger.WithError(err).WithField("event_type", string(event.EventType)).Warn("failed to write audit event")
			continue
		}
		if s.metrics != nil {
			s.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType)).Inc()
		}
	}
}

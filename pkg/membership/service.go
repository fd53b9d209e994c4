package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/observability"
	"github.com/platinummonkey/roster/pkg/repository"
)

// DefaultChannelName is the text channel seeded into every new group
const DefaultChannelName = "general"

// Config controls optional service behaviour
type Config struct {
	// VerifyInvariants runs the full invariant verifier before every commit
	VerifyInvariants bool

	// DefaultChannelName overrides the name of the channel seeded into new
	// groups; empty selects DefaultChannelName
	DefaultChannelName string
}

// Service is the only write path for users, groups, channels and join
// requests. Every mutation runs in a transaction that stages changes on a
// freshly loaded snapshot and persists the touched collections together.
type Service struct {
	repo    *repository.Repository
	locks   *lockSet
	cfg     Config
	logger  *observability.Logger
	metrics *observability.Metrics
	audit   audit.Logger
	now     func() time.Time
	newID   func() string
}

// Option customizes a Service
type Option func(*Service)

// WithLogger sets the structured logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithAuditLogger sets where audit events are written after commit
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) { s.audit = logger }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the uuid id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a membership service over repo
func NewService(repo *repository.Repository, cfg Config, opts ...Option) *Service {
	if cfg.DefaultChannelName == "" {
		cfg.DefaultChannelName = DefaultChannelName
	}
	s := &Service{
		repo:   repo,
		locks:  newLockSet(),
		cfg:    cfg,
		logger: observability.NopLogger(),
		audit:  audit.NoopLogger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository
func (s *Service) Repository() *repository.Repository {
	return s.repo
}

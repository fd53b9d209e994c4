package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/httputil"
	"github.com/platinummonkey/roster/pkg/joinrequests"
	"github.com/platinummonkey/roster/pkg/membership"
	"github.com/platinummonkey/roster/pkg/observability"
)

// ActorHeader carries the id of the user performing the request.
// Authentication happens upstream; the API trusts this header.
const ActorHeader = "X-Roster-User"

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// Server represents our API server
type Server struct {
	svc        *membership.Service
	requests   *joinrequests.Workflow
	auditStore audit.Store
	router     *mux.Router
	handler    http.Handler
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics enables HTTP metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

// WithAuditStore exposes the audit log under /audit
func WithAuditStore(store audit.Store) Option {
	return func(s *Server) { s.auditStore = store }
}

// NewServer creates a new API server
func NewServer(svc *membership.Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		requests: joinrequests.NewWorkflow(svc),
		router:   mux.NewRouter(),
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		s.contextMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// User routes
	s.router.HandleFunc("/users", s.registerUser).Methods("POST")
	s.router.HandleFunc("/users", s.listUsers).Methods("GET")
	s.router.HandleFunc("/users/{id}", s.getUser).Methods("GET")
	s.router.HandleFunc("/users/{id}", s.updateProfile).Methods("PATCH")
	s.router.HandleFunc("/users/{id}", s.deleteUser).Methods("DELETE")
	s.router.HandleFunc("/users/{id}/roles", s.setRoles).Methods("PUT")
	s.router.HandleFunc("/users/{id}/active", s.setActive).Methods("PUT")
	s.router.HandleFunc("/users/{id}/join-requests", s.listUserRequests).Methods("GET")

	// Group routes
	s.router.HandleFunc("/groups", s.createGroup).Methods("POST")
	s.router.HandleFunc("/groups", s.listGroups).Methods("GET")
	s.router.HandleFunc("/groups/{id}", s.getGroup).Methods("GET")
	s.router.HandleFunc("/groups/{id}", s.updateGroup).Methods("PATCH")
	s.router.HandleFunc("/groups/{id}", s.deleteGroup).Methods("DELETE")
	s.router.HandleFunc("/groups/{id}/members", s.addMember).Methods("POST")
	s.router.HandleFunc("/groups/{id}/members/{user_id}", s.removeMember).Methods("DELETE")
	s.router.HandleFunc("/groups/{id}/admins", s.promoteMember).Methods("POST")
	s.router.HandleFunc("/groups/{id}/admins/{user_id}", s.demoteAdmin).Methods("DELETE")
	s.router.HandleFunc("/groups/{id}/leave", s.leaveGroup).Methods("POST")

	// Channel routes
	s.router.HandleFunc("/groups/{id}/channels", s.createChannel).Methods("POST")
	s.router.HandleFunc("/groups/{id}/channels", s.listChannels).Methods("GET")
	s.router.HandleFunc("/channels/{id}", s.getChannel).Methods("GET")
	s.router.HandleFunc("/channels/{id}", s.updateChannel).Methods("PATCH")
	s.router.HandleFunc("/channels/{id}", s.deleteChannel).Methods("DELETE")
	s.router.HandleFunc("/channels/{id}/join", s.joinChannel).Methods("POST")
	s.router.HandleFunc("/channels/{id}/leave", s.leaveChannel).Methods("POST")
	s.router.HandleFunc("/channels/{id}/bans", s.banUser).Methods("POST")
	s.router.HandleFunc("/channels/{id}/bans/{user_id}", s.unbanUser).Methods("DELETE")

	// Join request routes
	s.router.HandleFunc("/groups/{id}/join-requests", s.submitRequest).Methods("POST")
	s.router.HandleFunc("/groups/{id}/join-requests", s.listPendingRequests).Methods("GET")
	s.router.HandleFunc("/join-requests/{id}/approve", s.approveRequest).Methods("POST")
	s.router.HandleFunc("/join-requests/{id}/reject", s.rejectRequest).Methods("POST")
	s.router.HandleFunc("/join-requests/{id}/cancel", s.cancelRequest).Methods("POST")

	if s.auditStore != nil {
		audit.NewHandlers(s.auditStore, s.authorizeAudit).RegisterRoutes(s.router)
	}

	// Router middleware runs after matching, so the route template is known
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics, routeTemplate))
	}
}

// contextMiddleware stores the server logger and the caller's id in the
// request context for handlers and the membership service
func (s *Server) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithLogger(r.Context(), s.logger)
		if id := r.Header.Get(ActorHeader); id != "" {
			ctx = observability.WithActorID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the router wrapped in the standard middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routeTemplate labels metrics with the matched route rather than the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

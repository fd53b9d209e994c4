package audit

import (
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/roster/pkg/httputil"
)

// Authorizer decides whether the caller of r may read the audit log. When it
// returns false it has already written the error response.
type Authorizer func(w http.ResponseWriter, r *http.Request) bool

// Handlers provides HTTP handlers for audit log API
type Handlers struct {
	store     Store
	authorize Authorizer
}

// NewHandlers creates new audit handlers. A nil authorize allows everyone.
func NewHandlers(store Store, authorize Authorizer) *Handlers {
	return &Handlers{
		store:     store,
		authorize: authorize,
	}
}

// RegisterRoutes registers audit log routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit/events", h.guard(h.listEvents)).Methods("GET")
	router.HandleFunc("/audit/events/{id}", h.guard(h.getEvent)).Methods("GET")
	router.HandleFunc("/audit/export", h.guard(h.exportEvents)).Methods("GET")
	router.HandleFunc("/audit/stats", h.guard(h.getStats)).Methods("GET")
}

func (h *Handlers) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authorize != nil && !h.authorize(w, r) {
			return
		}
		next(w, r)
	}
}

// listEvents handles GET /audit/events
func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	events, err := h.store.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// getEvent handles GET /audit/events/{id}
func (h *Handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	event, err := h.store.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if event == nil {
		httputil.WriteNotFoundError(w, "event not found")
		return
	}

	httputil.WriteSuccess(w, event)
}

// exportEvents handles GET /audit/export
func (h *Handlers) exportEvents(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	format := ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = ExportFormatJSON
	}

	data, err := h.store.Export(r.Context(), filter, format)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	switch format {
	case ExportFormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-logs.csv")
	case ExportFormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-logs.ndjson")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=audit-logs.json")
	}

	w.Write(data)
}

// getStats handles GET /audit/stats
func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context(), httputil.QueryTime(r, "start_time"), httputil.QueryTime(r, "end_time"))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, stats)
}

// parseFilter parses query parameters into a SearchFilter
func parseFilter(r *http.Request) SearchFilter {
	query := r.URL.Query()
	filter := SearchFilter{
		ActorID:      query.Get("actor_id"),
		ResourceType: ResourceType(query.Get("resource_type")),
		ResourceID:   query.Get("resource_id"),
		SortOrder:    query.Get("sort_order"),
		StartTime:    httputil.QueryTime(r, "start_time"),
		EndTime:      httputil.QueryTime(r, "end_time"),
		Limit:        httputil.QueryInt(r, "limit", 100, 1, 1000),
		Offset:       httputil.QueryInt(r, "offset", 0, 0, math.MaxInt),
	}

	for _, et := range query["event_type"] {
		filter.EventTypes = append(filter.EventTypes, EventType(et))
	}

	if statusStr := query.Get("status"); statusStr != "" {
		status := EventStatus(statusStr)
		filter.Status = &status
	}

	return filter
}

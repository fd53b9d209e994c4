package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/roster/pkg/kvstore"
)

// Store provides methods for querying and managing audit logs
type Store interface {
	// Search searches audit logs based on filters
	Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error)

	// Get retrieves a specific audit event by ID
	Get(ctx context.Context, id string) (*AuditEvent, error)

	// GetStats retrieves audit log statistics
	GetStats(ctx context.Context, startTime, endTime *time.Time) (*AuditStats, error)

	// Export exports audit logs in the specified format
	Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error)

	// Cleanup removes audit logs older than the retention period
	Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error)
}

// DefaultMaxEvents bounds the audit document when no limit is configured
const DefaultMaxEvents = 10000

// KVLogger appends events to a single JSON document in a key-value store and
// serves queries over it. It implements both Logger and Store.
type KVLogger struct {
	store     kvstore.Store
	key       string
	maxEvents int
	mu        sync.Mutex
}

// NewKVLogger creates a logger writing to key. Once more than maxEvents are
// held the oldest are dropped; maxEvents <= 0 selects DefaultMaxEvents.
func NewKVLogger(store kvstore.Store, key string, maxEvents int) *KVLogger {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &KVLogger{store: store, key: key, maxEvents: maxEvents}
}

func (l *KVLogger) load(ctx context.Context) ([]*AuditEvent, error) {
	data, found, err := l.store.Get(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}
	if !found {
		return nil, nil
	}
	var events []*AuditEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode audit log: %w", err)
	}
	return events, nil
}

func (l *KVLogger) save(ctx context.Context, events []*AuditEvent) error {
	if events == nil {
		events = []*AuditEvent{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}
	if err := l.store.Put(ctx, l.key, data); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Log appends event to the audit document
func (l *KVLogger) Log(ctx context.Context, event *AuditEvent) error {
	ensureIdentity(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.load(ctx)
	if err != nil {
		return err
	}
	events = append(events, event)
	if len(events) > l.maxEvents {
		events = events[len(events)-l.maxEvents:]
	}
	return l.save(ctx, events)
}

// Close implements Logger
func (l *KVLogger) Close() error {
	return nil
}

// Search searches audit logs based on filters
func (l *KVLogger) Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error) {
	l.mu.Lock()
	events, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	matched := make([]*AuditEvent, 0)
	for _, e := range events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	if filter.SortOrder == "asc" {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		})
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*AuditEvent{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Get retrieves a specific audit event by ID. It returns nil when absent.
func (l *KVLogger) Get(ctx context.Context, id string) (*AuditEvent, error) {
	l.mu.Lock()
	events, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

// GetStats retrieves audit log statistics
func (l *KVLogger) GetStats(ctx context.Context, startTime, endTime *time.Time) (*AuditStats, error) {
	events, err := l.Search(ctx, SearchFilter{StartTime: startTime, EndTime: endTime, SortOrder: "asc"})
	if err != nil {
		return nil, err
	}

	stats := &AuditStats{
		EventsByType:     make(map[EventType]int64),
		EventsByStatus:   make(map[EventStatus]int64),
		EventsByActor:    make(map[string]int64),
		EventsByResource: make(map[ResourceType]int64),
	}
	for _, e := range events {
		stats.TotalEvents++
		stats.EventsByType[e.EventType]++
		stats.EventsByStatus[e.Status]++
		if e.ActorID != "" {
			stats.EventsByActor[e.ActorID]++
		}
		if e.ResourceType != "" {
			stats.EventsByResource[e.ResourceType]++
		}
	}
	stats.UniqueActors = int64(len(stats.EventsByActor))
	if len(events) > 0 {
		stats.TimeRange = &TimeRange{
			Start: events[0].Timestamp,
			End:   events[len(events)-1].Timestamp,
		}
	}
	return stats, nil
}

// Export exports audit logs in the specified format
func (l *KVLogger) Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error) {
	events, err := l.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Export(events, format)
}

// Cleanup removes audit logs older than the retention period
func (l *KVLogger) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	if policy.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -policy.RetentionDays)

	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]*AuditEvent, 0, len(events))
	for _, e := range events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(events) - len(kept))
	if removed == 0 {
		return 0, nil
	}
	if err := l.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Group events
	EventTypeGroupCreate        EventType = "group.create"
	EventTypeGroupUpdate        EventType = "group.update"
	EventTypeGroupDelete        EventType = "group.delete"
	EventTypeGroupMemberAdd     EventType = "group.member_add"
	EventTypeGroupMemberRemove  EventType = "group.member_remove"
	EventTypeGroupAdminPromote  EventType = "group.admin_promote"
	EventTypeGroupAdminDemote   EventType = "group.admin_demote"

	// Channel events
	EventTypeChannelCreate EventType = "channel.create"
	EventTypeChannelUpdate EventType = "channel.update"
	EventTypeChannelDelete EventType = "channel.delete"
	EventTypeChannelBan    EventType = "channel.ban"
	EventTypeChannelUnban  EventType = "channel.unban"

	// User events
	EventTypeUserRegister   EventType = "user.register"
	EventTypeUserUpdate     EventType = "user.update"
	EventTypeUserDelete     EventType = "user.delete"
	EventTypeUserRoleChange EventType = "user.role_change"
	EventTypeUserActivate   EventType = "user.activate"
	EventTypeUserDeactivate EventType = "user.deactivate"

	// Join request events
	EventTypeJoinRequestSubmit  EventType = "join_request.submit"
	EventTypeJoinRequestApprove EventType = "join_request.approve"
	EventTypeJoinRequestReject  EventType = "join_request.reject"
	EventTypeJoinRequestCancel  EventType = "join_request.cancel"

	// Bulk import of a seed snapshot
	EventTypeSnapshotImport EventType = "snapshot.import"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being acted on
type ResourceType string

const (
	ResourceTypeUser        ResourceType = "user"
	ResourceTypeGroup       ResourceType = "group"
	ResourceTypeChannel     ResourceType = "channel"
	ResourceTypeJoinRequest ResourceType = "join_request"
	ResourceTypePlatform    ResourceType = "platform"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	// Core fields
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information
	ActorID   string `json:"actor_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Resource information
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	// Additional details
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Changes tracking (before/after for updates)
	Changes *ChangeDetails `json:"changes,omitempty"`
}

// ChangeDetails tracks before/after values for updates
type ChangeDetails struct {
	Before map[string]interface{} `json:"before,omitempty"`
	After  map[string]interface{} `json:"after,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *AuditEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*AuditEvent, error) {
	var event AuditEvent
	err := json.Unmarshal(data, &event)
	return &event, err
}

// SearchFilter represents filters for searching audit logs
type SearchFilter struct {
	// Time range
	StartTime *time.Time
	EndTime   *time.Time

	// Actor filter
	ActorID string

	// Event filters
	EventTypes []EventType
	Status     *EventStatus

	// Resource filters
	ResourceType ResourceType
	ResourceID   string

	// Pagination
	Limit  int
	Offset int

	// Sorting by timestamp: "asc" or "desc" (default)
	SortOrder string
}

// Matches reports whether event satisfies every filter field that is set
func (f SearchFilter) Matches(event *AuditEvent) bool {
	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}
	if f.ActorID != "" && event.ActorID != f.ActorID {
		return false
	}
	if len(f.EventTypes) > 0 {
		found := false
		for _, t := range f.EventTypes {
			if t == event.EventType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != nil && event.Status != *f.Status {
		return false
	}
	if f.ResourceType != "" && event.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && event.ResourceID != f.ResourceID {
		return false
	}
	return true
}

// ExportFormat represents the format for exporting audit logs
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson" // Newline-delimited JSON
)

// AuditStats represents statistics about audit logs
type AuditStats struct {
	TotalEvents      int64                  `json:"total_events"`
	EventsByType     map[EventType]int64    `json:"events_by_type"`
	EventsByStatus   map[EventStatus]int64  `json:"events_by_status"`
	EventsByActor    map[string]int64       `json:"events_by_actor"`
	EventsByResource map[ResourceType]int64 `json:"events_by_resource"`
	UniqueActors     int64                  `json:"unique_actors"`
	TimeRange        *TimeRange             `json:"time_range,omitempty"`
}

// TimeRange represents a time range for statistics
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RetentionPolicy defines how long audit logs should be kept
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep audit logs
	RetentionDays int
}

// DefaultRetentionPolicy returns a default retention policy (90 days)
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 90}
}

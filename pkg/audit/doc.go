// Package audit records who changed membership and when.
//
// # Overview
//
// Bans, unbans, group and user deletions, role changes and join-request
// decisions are written as AuditEvents after the membership change they
// describe has been committed. Only SuperAdmins may read the log.
//
// # Loggers
//
//	KVLogger    - appends to one JSON document in the key-value store; also a Store
//	FileLogger  - JSON lines in a rotating file
//	MultiLogger - fans out to several loggers
//	NoopLogger  - discards everything
//
// # Usage Example
//
//	kv := audit.NewKVLogger(store, "roster:audit", 0)
//	logger := audit.NewMultiLogger(kv, fileLogger)
//
//	event := audit.NewEvent(audit.EventTypeChannelBan, actor.ID,
//		audit.ResourceTypeChannel, channel.ID, "spam")
//	event.Metadata["user_id"] = target.ID
//	logger.Log(ctx, event)
//
// Search audit logs:
//
//	events, err := kv.Search(ctx, audit.SearchFilter{
//		EventTypes: []audit.EventType{audit.EventTypeChannelBan},
//		ResourceID: channel.ID,
//		Limit:      50,
//	})
//
// # Retention Policy
//
// Cleanup drops events older than RetentionPolicy.RetentionDays (default 90).
// The service schedules it with cron. Export renders JSON, CSV or NDJSON.
package audit

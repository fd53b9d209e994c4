// Package api provides the HTTP/JSON surface of the roster membership engine.
//
// # Overview
//
// Every route delegates to membership.Service or joinrequests.Workflow; the
// handlers only decode requests, resolve the acting user and map errors.
// Authentication happens upstream: the caller's user id arrives in the
// X-Roster-User header.
//
// # Routes
//
//	POST   /users                            register (header optional: self sign-up)
//	GET    /users, /users/{id}
//	PATCH  /users/{id}                       update profile
//	DELETE /users/{id}
//	PUT    /users/{id}/roles                 {"roles": [...]}
//	PUT    /users/{id}/active                {"active": bool}
//	GET    /users/{id}/join-requests         requester only
//
//	POST   /groups                           create (adds the "general" channel)
//	GET    /groups, /groups/{id}
//	PATCH  /groups/{id}
//	DELETE /groups/{id}
//	POST   /groups/{id}/members              {"user_id": ...}
//	DELETE /groups/{id}/members/{user_id}
//	POST   /groups/{id}/admins               {"user_id": ...}
//	DELETE /groups/{id}/admins/{user_id}
//	POST   /groups/{id}/leave
//
//	POST   /groups/{id}/channels
//	GET    /groups/{id}/channels
//	GET    /channels/{id}
//	PATCH  /channels/{id}
//	DELETE /channels/{id}
//	POST   /channels/{id}/join, /channels/{id}/leave
//	POST   /channels/{id}/bans               {"user_id": ..., "reason": ...}
//	DELETE /channels/{id}/bans/{user_id}
//
//	POST   /groups/{id}/join-requests        {"request_type": ..., "message": ...}
//	GET    /groups/{id}/join-requests        pending, reviewers only
//	POST   /join-requests/{id}/approve|reject|cancel
//
//	GET    /audit/events|export|stats        SuperAdmin only
//
// # Errors
//
// Rejections are written as {"error": "...", "kind": "..."}:
//
//	PermissionDenied, Banned                              403
//	NotFound                                              404
//	NameConflict, AlreadyMember, DuplicateRequest,
//	NotEmpty, HasMembers                                  409
//	InvariantViolation, InvalidStateTransition,
//	ChannelFull, GroupFull, NotGroupMember                422
//	InvalidInput                                          400
//
// Store failures become a bare 500 and are logged.
//
// # Usage
//
//	server := api.NewServer(svc,
//		api.WithLogger(logger),
//		api.WithMetrics(metrics),
//		api.WithAuditStore(auditLog),
//	)
//	http.ListenAndServe(":8080", server)
package api

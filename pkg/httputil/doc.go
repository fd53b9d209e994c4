// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing and the middleware shared by the roster HTTP surfaces.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, group)
//	httputil.WriteCreated(w, channel)
//
// Error responses:
//
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteErrorResponse(w, http.StatusConflict, httputil.ErrorResponse{
//		Error: err.Error(),
//		Kind:  "NameConflict",
//	})
//
// # Request Parsing
//
//	var req createGroupRequest
//	if !httputil.DecodeBody(w, r, &req) {
//		return // 400 or 413 with kind InvalidInput already written
//	}
//
//	id, ok := httputil.PathVar(w, r, "id")
//	limit := httputil.QueryInt(r, "limit", 100, 1, 1000)
//	since := httputil.QueryTime(r, "start_time")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil

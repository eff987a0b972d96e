// Package server provides HTTP routing, middleware, and the handlers of the songdrop web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and keeps a method table per path.
// Requests with a method the path doesn't register get a JSON 405:
//
//	{"error":"Method not allowed"}
//
// # Routes
//
//	GET     /songs    list songs, newest first
//	POST    /songs    add a song with an existing URL (JSON or form body)
//	POST    /upload   multipart upload through the intake pipeline
//	OPTIONS *         CORS preflight, 204
//	GET     /healthz  status and song count
//	GET     /         web UI
//	GET     /media/*  locally stored uploads (local storage backend only)
//
// # Middleware
//
// [New] applies [RequestID], [Logger], [Recover] and [CORS] to every route.
// /upload is additionally wrapped with [RateLimit] and [MaxBytes].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

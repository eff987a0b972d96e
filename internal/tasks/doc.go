// Package tasks runs bulk operations against a songdrop server with real-time progress reporting.
//
// # Bulk Upload
//
// [Uploader.BulkUpload] pushes many local files through [services.Client.Upload]:
//   - titles come from the filename ("My Song.mp3" → "My Song")
//   - files without the ".mp3" suffix fail immediately, without a request
//   - a worker pool (default 3, max 10) uploads concurrently
//   - a [rate.Limiter] (default 2/s) paces new uploads
//
// Results keep input order and count successes and failures. [CollectFiles] expands directory arguments.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks

// Package services implements the HTTP client for a songdrop server.
//
// # Client Interface
//
// [Client] is the surface the CLI commands, the bulk uploader and the TUI depend on, so each can be tested
// against a fake.
//
// # API Service
//
// [APIService] implements Client over plain HTTP:
//   - ListSongs: GET /songs
//   - AddSong: POST /songs with a JSON body
//   - Upload: POST /upload, streaming the file through a multipart writer
//   - Health: GET /healthz
//
// The raw Get and Post methods return an [APIResponse] with the body, headers and decoded JSON for the
// debugging commands.
//
// # Error Handling
//
// Non-2xx responses become errors wrapping [shared.ErrAPIRequest] carrying the server's error message, e.g.
//
//	API request failed: Only MP3 files allowed (status 400)
//
// Health failures wrap [shared.ErrServiceUnavailable].
package services

// Package models defines the song catalog's domain types.
//
//   - [Song] : one uploaded track's metadata record (id, title, url, upload time)
//   - [Catalog] : the newest-first collection of songs, which only grows
//
// Catalog implementations live in the repositories package: an in-memory store for
// process-lifetime catalogs and a SQLite-backed one.
package models

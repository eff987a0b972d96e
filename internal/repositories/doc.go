// Package repositories implements the song [models.Catalog].
//
// Key Implementations:
//   - [MemoryCatalog] : mutex-guarded slice, the default process-lifetime catalog
//   - [SongRepository] : SQLite persistence with a per-table sequence for insertion order
//
// Both hand out ids from a [shared.Stamper], so ids are timestamp-derived and never reused.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

// Package intake turns a multipart upload into a stored file and a catalog entry.
//
// # Pipeline
//
// [Pipeline.Process] runs the upload in order:
//
//  1. Parse the multipart body; the part named "title" supplies the title and the "file" part supplies the filename,
//     falling back to the file part with the lowest field name.
//  2. Reject a missing title or file (empty and truncated bodies included), then reject filenames without the case-sensitive ".mp3" suffix.
//  3. Build the storage name "{slug}-{stamp}.mp3" from [Slugify] and a monotonic millisecond stamp.
//  4. Write the bytes through the [storage.Store]. Nothing is indexed when this fails.
//  5. Append the title and URL to the [models.Catalog].
//
// # Index Policy
//
// A catalog failure after the bytes are stored is handled by the configured [IndexPolicy]:
//   - [BestEffort] logs the failure and reports Indexed=false in the [Result]
//   - [Strict] deletes the stored file and fails the upload with an error wrapping [shared.ErrIndexing]
//
// # Errors
//
// Input problems are returned as [*ValidationError], which unwraps to [shared.ErrValidation] and carries the
// message shown to the user. Oversized bodies wrap [shared.ErrPayloadTooLarge] and storage failures wrap
// [shared.ErrStorage].
package intake

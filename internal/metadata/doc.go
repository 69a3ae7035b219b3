// Package metadata reports job status and edit map results to the metadata
// store.
//
// A Reporter receives exactly the writes a job makes: a processing status on
// entry, then either one edit map write followed by a completed status, or a
// single failed status. Implementations do not deduplicate; running the same
// job twice produces two sets of writes.
package metadata

// Package queue persists analysis jobs in SQLite and exposes the claim
// lifecycle the worker drives them through.
//
// A job is enqueued pending, claimed by a worker with a visibility deadline,
// kept alive by heartbeats while its pipeline runs, and finally acked as
// completed or failed. Claims whose deadline passes without a heartbeat are
// redelivered to the next Claim call; every state change after a claim is
// guarded by the claim token so a worker that lost its claim cannot ack a job
// someone else now owns.
//
// The same database carries the local metadata tables (edit map status and
// results) used when no remote metadata API is configured.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue

// Package workflow runs analysis jobs on a bounded worker pool.
//
// The Manager is the job boundary: for each AnalysisJob it reports the
// processing status, runs the pipeline, and reports either the EditMap plus a
// completed status or a single failed status carrying the error text. One
// job's failure never stops its siblings.
//
// In daemon mode the Manager claims batches from the SQLite queue, keeps each
// claim alive with heartbeats while the job runs, and acks the outcome. A job
// whose claim is lost, or which is still running at shutdown, is abandoned
// without a failed status so the redelivered copy starts clean.
package workflow

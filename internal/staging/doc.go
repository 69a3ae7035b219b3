// Package staging manages per-job scratch directories.
//
// Each job gets its own directory under the scratch root; it owns every file
// inside and removes the directory when the job ends, whatever the outcome.
// CleanStale reclaims directories left behind by crashed processes.
package staging

// Package services defines shared utilities consumed by the analysis stages
// and the external collaborators they talk to.
//
// Key responsibilities:
//   - Context helpers that stamp edit map IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline taxonomy (retrieval, extraction, transcription, ...).
//   - Details, which unpacks a wrapped error into the fields the orchestrator
//     logs and reports.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services

// Package api defines wire-format types and converters for the daemon's HTTP
// surface. It translates queue messages, workflow status, and stored edit map
// status into DTOs that dashboards and scripts can consume without importing
// internal types.
//
// DTOs use camelCase JSON tags. Enums (queue.Status, editmap.Status) are
// exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
// Stored edit maps are passed through as their own JSON document.
package api

// Package config loads, normalizes, and validates reelscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REELSCAN_METADATA_TOKEN. The Config type centralizes every knob the worker
// and CLI need so scratch directories, collaborator endpoints, and analysis
// thresholds are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

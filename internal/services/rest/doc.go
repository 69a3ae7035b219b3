// Package rest is the shared JSON-over-HTTP client behind the metadata store,
// object storage, and speech-to-text collaborators.
//
// It owns bearer authentication, response status classification, and bounded
// retries with exponential backoff for transient failures (408, 429, 5xx and
// network timeouts). Callers map the returned *StatusError onto the services
// error taxonomy.
package rest

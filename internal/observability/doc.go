// Package observability builds the zap loggers used across the service and
// enriches them with request scoped fields.
package observability

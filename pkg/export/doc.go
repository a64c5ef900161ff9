// Package export serves collected metrics over HTTP: the Prometheus text
// exposition endpoint, a health endpoint, and a redacted view of the
// effective configuration.
package export

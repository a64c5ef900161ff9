// Package logging provides structured logging for the drishti observability
// engine, built on log/slog with JSON and text handlers.
//
// Credential material moves through the interceptor on every request, so the
// logger scrubs it before output: attribute values under credential-bearing
// keys are truncated, and bearer tokens, API keys, and JWTs embedded in
// string values are replaced before the record is written.
//
// Context-aware variants (InfoContext and friends) automatically attach the
// request ID, resolved organization, and classified service kind when those
// are present on the context.
package logging

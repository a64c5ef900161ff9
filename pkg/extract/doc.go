// Package extract derives business measurements from request and response
// payloads: characters, audio seconds, image bytes, and token usage.
//
// Every extractor declares an explicit checked schema for the payloads it
// understands. Extraction is strictly best-effort (malformed or unexpected
// payloads yield zero increments, never an error) and strictly honest:
// character counts are rune counts of decoded text, audio length comes from
// an explicit duration field or an exact WAV header computation, and tokens
// come from the backend's own usage accounting. None of these are ever
// estimated from payload byte size.
package extract

package extract

import (
	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/metrics"
)

// Extractor derives business measurements from request and response
// payloads for a set of service kinds.
//
// Extraction is strictly best-effort: a malformed or unexpected payload
// yields zero increments, never an error. Nothing an extractor does may
// influence the request path.
type Extractor interface {
	// Services lists the service kinds this extractor applies to.
	Services() []classify.ServiceKind

	// WantsResponse reports whether the extractor needs the response
	// body. The interceptor only buffers response payloads when some
	// registered extractor asks for them.
	WantsResponse() bool

	// Extract derives increments from the payloads. Either argument may
	// be nil or empty.
	Extract(reqBody, respBody []byte) []metrics.Increment
}

// Set dispatches extraction by service kind.
type Set struct {
	byKind map[classify.ServiceKind][]Extractor
}

// NewSet builds a set from the given extractors.
func NewSet(extractors ...Extractor) *Set {
	s := &Set{byKind: make(map[classify.ServiceKind][]Extractor)}
	for _, e := range extractors {
		for _, kind := range e.Services() {
			s.byKind[kind] = append(s.byKind[kind], e)
		}
	}
	return s
}

// Defaults returns the standard extractor set: rune-counted characters for
// text services, exact audio seconds for speech services, decoded image
// bytes for OCR, and token usage wherever a response reports it.
func Defaults() *Set {
	return NewSet(
		NewTextExtractor(),
		NewAudioExtractor(),
		NewImageExtractor(),
		NewTokenExtractor(),
	)
}

// WantsResponse reports whether any extractor for the kind needs the
// response body.
func (s *Set) WantsResponse(kind classify.ServiceKind) bool {
	for _, e := range s.byKind[kind] {
		if e.WantsResponse() {
			return true
		}
	}
	return false
}

// Extract runs every extractor registered for the kind and concatenates
// their increments in registration order.
func (s *Set) Extract(kind classify.ServiceKind, reqBody, respBody []byte) []metrics.Increment {
	var out []metrics.Increment
	for _, e := range s.byKind[kind] {
		out = append(out, e.Extract(reqBody, respBody)...)
	}
	return out
}

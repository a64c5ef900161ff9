package extract

import (
	"encoding/json"
	"unicode/utf8"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/metrics"
)

// textPayload is the checked schema for text-bearing requests. Both the
// batch form ({"input":[{"source":...}]}) and the flat forms ({"text":...},
// {"source":...}) are accepted.
type textPayload struct {
	Input []struct {
		Source string `json:"source"`
	} `json:"input"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// TextExtractor counts the characters a request submits for processing.
// Counts are rune counts of the decoded text, so multibyte scripts are
// measured by character, not by encoded byte.
type TextExtractor struct{}

// NewTextExtractor creates the extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Services implements Extractor.
func (e *TextExtractor) Services() []classify.ServiceKind {
	return []classify.ServiceKind{
		classify.Translation,
		classify.TTS,
		classify.NER,
		classify.Transliteration,
		classify.LanguageDetection,
	}
}

// WantsResponse implements Extractor.
func (e *TextExtractor) WantsResponse() bool { return false }

// Extract implements Extractor.
func (e *TextExtractor) Extract(reqBody, _ []byte) []metrics.Increment {
	chars := countCharacters(reqBody)
	if chars <= 0 {
		return nil
	}
	return []metrics.Increment{{Metric: metrics.MetricCharacters, Value: float64(chars)}}
}

// countCharacters sums the rune counts of all text fields in the payload,
// returning 0 for anything malformed.
func countCharacters(body []byte) int {
	if len(body) == 0 {
		return 0
	}
	var p textPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0
	}

	total := 0
	for _, in := range p.Input {
		total += utf8.RuneCountInString(in.Source)
	}
	if len(p.Input) == 0 {
		total += utf8.RuneCountInString(p.Text)
		total += utf8.RuneCountInString(p.Source)
	}
	return total
}

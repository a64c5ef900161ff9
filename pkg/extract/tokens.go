package extract

import (
	"encoding/json"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/metrics"
)

// usagePayload is the checked schema for backends that report token usage
// in their responses.
type usagePayload struct {
	Usage struct {
		TotalTokens      float64 `json:"total_tokens"`
		PromptTokens     float64 `json:"prompt_tokens"`
		CompletionTokens float64 `json:"completion_tokens"`
	} `json:"usage"`
}

// TokenExtractor records token usage for backends that report it. Only the
// backend's own accounting is trusted; tokens are never estimated from
// text length here.
type TokenExtractor struct{}

// NewTokenExtractor creates the extractor.
func NewTokenExtractor() *TokenExtractor {
	return &TokenExtractor{}
}

// Services implements Extractor. Token-reporting backends currently sit
// behind the text services.
func (e *TokenExtractor) Services() []classify.ServiceKind {
	return []classify.ServiceKind{
		classify.Translation,
		classify.NER,
		classify.Transliteration,
		classify.LanguageDetection,
	}
}

// WantsResponse implements Extractor.
func (e *TokenExtractor) WantsResponse() bool { return true }

// Extract implements Extractor.
func (e *TokenExtractor) Extract(_, respBody []byte) []metrics.Increment {
	if len(respBody) == 0 {
		return nil
	}
	var p usagePayload
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil
	}

	total := p.Usage.TotalTokens
	if total <= 0 {
		total = p.Usage.PromptTokens + p.Usage.CompletionTokens
	}
	if total <= 0 {
		return nil
	}
	return []metrics.Increment{{Metric: metrics.MetricTokens, Value: total}}
}

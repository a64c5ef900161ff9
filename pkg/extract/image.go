package extract

import (
	"encoding/base64"
	"encoding/json"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/metrics"
)

// imagePayload is the checked schema for image-bearing requests.
type imagePayload struct {
	Image        string `json:"image"`
	ImageContent string `json:"imageContent"`
	Images       []struct {
		ImageContent string `json:"imageContent"`
	} `json:"images"`
}

// ImageExtractor measures the decoded byte length of submitted images.
type ImageExtractor struct{}

// NewImageExtractor creates the extractor.
func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{}
}

// Services implements Extractor.
func (e *ImageExtractor) Services() []classify.ServiceKind {
	return []classify.ServiceKind{classify.OCR}
}

// WantsResponse implements Extractor.
func (e *ImageExtractor) WantsResponse() bool { return false }

// Extract implements Extractor.
func (e *ImageExtractor) Extract(reqBody, _ []byte) []metrics.Increment {
	bytes := imageBytes(reqBody)
	if bytes <= 0 {
		return nil
	}
	return []metrics.Increment{{Metric: metrics.MetricImageBytes, Value: float64(bytes)}}
}

// imageBytes sums the decoded sizes of all images in the payload, returning
// 0 for anything malformed.
func imageBytes(body []byte) int {
	if len(body) == 0 {
		return 0
	}
	var p imagePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0
	}

	total := 0
	total += decodedLen(p.Image)
	total += decodedLen(p.ImageContent)
	for _, img := range p.Images {
		total += decodedLen(img.ImageContent)
	}
	return total
}

// decodedLen returns the exact decoded byte length of base64 content, or 0
// when the content does not decode.
func decodedLen(content string) int {
	if content == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return 0
	}
	return len(raw)
}

package extract

import (
	"encoding/base64"
	"encoding/json"

	"vaani-labs/drishti/pkg/classify"
	"vaani-labs/drishti/pkg/metrics"
)

// audioPayload is the checked schema for audio-bearing requests. The batch
// form carries base64 WAV content or an explicit duration; responses from
// synthesis carry the same envelope.
type audioPayload struct {
	Audio []audioItem `json:"audio"`
	// Flat forms.
	AudioContent string  `json:"audioContent"`
	Duration     float64 `json:"duration"`
}

type audioItem struct {
	AudioContent string  `json:"audioContent"`
	Duration     float64 `json:"duration"`
}

// AudioExtractor measures the audio seconds a request submits. The length
// comes from an explicitly supplied duration field when present, otherwise
// from an exact WAV header computation on the decoded content. It is never
// estimated from payload byte size: compression ratios vary too much for
// size to stand in for time.
type AudioExtractor struct{}

// NewAudioExtractor creates the extractor.
func NewAudioExtractor() *AudioExtractor {
	return &AudioExtractor{}
}

// Services implements Extractor.
func (e *AudioExtractor) Services() []classify.ServiceKind {
	return []classify.ServiceKind{
		classify.ASR,
		classify.TTS,
		classify.SpeakerDiarization,
		classify.LanguageDiarization,
		classify.AudioLanguageDetection,
	}
}

// WantsResponse implements Extractor. Synthesis produces its audio in the
// response, so TTS measurement needs the response body.
func (e *AudioExtractor) WantsResponse() bool { return true }

// Extract implements Extractor. Request audio is measured when present;
// for synthesis-style payloads the audio arrives in the response instead.
func (e *AudioExtractor) Extract(reqBody, respBody []byte) []metrics.Increment {
	seconds := audioSeconds(reqBody)
	if seconds <= 0 {
		seconds = audioSeconds(respBody)
	}
	if seconds <= 0 {
		return nil
	}
	return []metrics.Increment{{Metric: metrics.MetricAudioSeconds, Value: seconds}}
}

// audioSeconds sums the audio lengths in the payload, returning 0 for
// anything malformed. Raw WAV bodies posted without a JSON envelope are
// measured directly.
func audioSeconds(body []byte) float64 {
	if len(body) == 0 {
		return 0
	}

	if d, ok := wavDuration(body); ok {
		return d
	}

	var p audioPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0
	}

	total := 0.0
	for _, item := range p.Audio {
		total += itemSeconds(item.Duration, item.AudioContent)
	}
	if len(p.Audio) == 0 {
		total += itemSeconds(p.Duration, p.AudioContent)
	}
	return total
}

// itemSeconds resolves one audio item: explicit duration wins, then exact
// WAV decode.
func itemSeconds(duration float64, content string) float64 {
	if duration > 0 {
		return duration
	}
	if content == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return 0
	}
	if d, ok := wavDuration(raw); ok {
		return d
	}
	return 0
}

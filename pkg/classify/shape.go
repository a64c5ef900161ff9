package classify

import (
	"bytes"
	"encoding/json"
)

// ShapeOf inspects a request payload and reports its coarse shape from the
// top-level JSON keys. Non-JSON payloads are sniffed for WAV content;
// anything else has no shape. The result only disambiguates shape-gated
// routes, so a wrong guess degrades classification, never correctness.
func ShapeOf(body []byte) Shape {
	if len(body) == 0 {
		return ShapeNone
	}

	// Raw audio posted without a JSON envelope.
	if bytes.HasPrefix(body, []byte("RIFF")) {
		return ShapeAudio
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return ShapeNone
	}

	for _, key := range []string{"audio", "audioContent", "audio_uri"} {
		if present(top, key) {
			return ShapeAudio
		}
	}
	for _, key := range []string{"image", "imageContent", "image_uri"} {
		if present(top, key) {
			return ShapeImage
		}
	}
	for _, key := range []string{"input", "text", "source"} {
		if present(top, key) {
			return ShapeText
		}
	}
	return ShapeNone
}

// present reports whether the key exists with a non-null value.
func present(top map[string]json.RawMessage, key string) bool {
	v, ok := top[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

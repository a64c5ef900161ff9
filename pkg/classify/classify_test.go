package classify

import (
	"testing"

	"vaani-labs/drishti/pkg/config"
)

func TestClassify_DefaultVocabulary(t *testing.T) {
	table := NewTable(DefaultRules())

	tests := []struct {
		path  string
		shape Shape
		want  ServiceKind
	}{
		{"/translation/v1", ShapeText, Translation},
		{"/translate", ShapeText, Translation},
		{"/nmt/v2/batch", ShapeText, Translation},
		{"/asr/v1", ShapeAudio, ASR},
		{"/transcribe", ShapeAudio, ASR},
		{"/speech/recognize", ShapeAudio, ASR},
		{"/tts/v1", ShapeText, TTS},
		{"/synthesize", ShapeText, TTS},
		{"/ocr/v1", ShapeImage, OCR},
		{"/ner", ShapeText, NER},
		{"/transliteration/v1", ShapeText, Transliteration},
		{"/xlit", ShapeText, Transliteration},
		{"/language-detection", ShapeText, LanguageDetection},
		{"/language-detection", ShapeAudio, AudioLanguageDetection},
		{"/detect-language/v1", ShapeAudio, AudioLanguageDetection},
		{"/speaker-diarization", ShapeAudio, SpeakerDiarization},
		{"/language-diarization", ShapeAudio, LanguageDiarization},
		{"/foo/bar", ShapeText, Unknown},
		{"/", ShapeNone, Unknown},
		{"", ShapeNone, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.shape), func(t *testing.T) {
			got := table.Classify(tt.path, tt.shape)
			if got.Service != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.path, tt.shape, got.Service, tt.want)
			}
		})
	}
}

func TestClassify_PatternIsRulePrefix(t *testing.T) {
	table := NewTable(DefaultRules())

	got := table.Classify("/translation/v1/models/42?verbose=true", ShapeText)
	if got.Pattern != "/translation" {
		t.Errorf("expected pattern /translation, got %q", got.Pattern)
	}

	if got := table.Classify("/no/match", ShapeNone); got.Pattern != "" {
		t.Errorf("expected empty pattern for unmatched route, got %q", got.Pattern)
	}
}

func TestClassify_SegmentBoundaries(t *testing.T) {
	table := NewTable([]Rule{{Prefix: "/translate", Service: Translation}})

	// Prefixes match whole segments, not raw string prefixes.
	if got := table.Classify("/translated/v1", ShapeText); got.Service != Unknown {
		t.Errorf("expected /translated unmatched, got %q", got.Service)
	}
	if got := table.Classify("/translate/", ShapeText); got.Service != Translation {
		t.Errorf("expected trailing slash matched, got %q", got.Service)
	}
}

func TestClassify_DeepestMatchWins(t *testing.T) {
	table := NewTable([]Rule{
		{Prefix: "/api", Service: Translation},
		{Prefix: "/api/tts", Service: TTS},
	})

	if got := table.Classify("/api/tts/v1", ShapeText); got.Service != TTS {
		t.Errorf("expected deepest rule, got %q", got.Service)
	}
	if got := table.Classify("/api/other", ShapeText); got.Service != Translation {
		t.Errorf("expected shallow fallback, got %q", got.Service)
	}
}

func TestClassify_ShapeFallsBackToShallowerMatch(t *testing.T) {
	table := NewTable([]Rule{
		{Prefix: "/api", Service: Translation},
		{Prefix: "/api/infer", Service: ASR, Shape: ShapeAudio},
	})

	// The deep rule requires audio; a text payload falls back.
	if got := table.Classify("/api/infer", ShapeText); got.Service != Translation {
		t.Errorf("expected shallow fallback past shape gate, got %q", got.Service)
	}
	if got := table.Classify("/api/infer", ShapeAudio); got.Service != ASR {
		t.Errorf("expected audio rule matched, got %q", got.Service)
	}
}

func TestClassify_FirstDeclaredWinsTies(t *testing.T) {
	table := NewTable([]Rule{
		{Prefix: "/infer", Service: Translation},
		{Prefix: "/infer", Service: TTS},
	})

	if got := table.Classify("/infer", ShapeText); got.Service != Translation {
		t.Errorf("expected first-declared rule, got %q", got.Service)
	}
}

func TestClassify_Reload(t *testing.T) {
	table := NewTable([]Rule{{Prefix: "/old", Service: Translation}})

	table.Reload([]Rule{{Prefix: "/new", Service: TTS}})

	if got := table.Classify("/old", ShapeText); got.Service != Unknown {
		t.Errorf("expected old rule gone, got %q", got.Service)
	}
	if got := table.Classify("/new", ShapeText); got.Service != TTS {
		t.Errorf("expected new rule live, got %q", got.Service)
	}
}

func TestFromConfig(t *testing.T) {
	// Empty config falls back to defaults.
	table := FromConfig(nil)
	if got := table.Classify("/translation/v1", ShapeText); got.Service != Translation {
		t.Errorf("expected default vocabulary, got %q", got.Service)
	}

	// Configured rules replace the defaults wholesale.
	table = FromConfig([]config.RouteRule{{Prefix: "/v2/mt", Service: "translation"}})
	if got := table.Classify("/v2/mt", ShapeText); got.Service != Translation {
		t.Errorf("expected configured rule, got %q", got.Service)
	}
	if got := table.Classify("/translation/v1", ShapeText); got.Service != Unknown {
		t.Errorf("expected defaults replaced, got %q", got.Service)
	}
}

func TestKindFromString(t *testing.T) {
	if got := KindFromString("asr"); got != ASR {
		t.Errorf("expected asr, got %q", got)
	}
	if got := KindFromString("alchemy"); got != Unknown {
		t.Errorf("expected unknown for bad kind, got %q", got)
	}
}

func TestShapeOf(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Shape
	}{
		{"text input", `{"input":[{"source":"Hello"}]}`, ShapeText},
		{"text field", `{"text":"hi"}`, ShapeText},
		{"audio envelope", `{"audio":[{"audioContent":"UklGR..."}]}`, ShapeAudio},
		{"audio content", `{"audioContent":"abc"}`, ShapeAudio},
		{"image", `{"image":"base64..."}`, ShapeImage},
		{"audio beats text", `{"audio":[],"input":[]}`, ShapeAudio},
		{"null audio ignored", `{"audio":null,"input":[]}`, ShapeText},
		{"empty", ``, ShapeNone},
		{"not json", `hello`, ShapeNone},
		{"json array", `[1,2,3]`, ShapeNone},
		{"no known keys", `{"config":{}}`, ShapeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShapeOf([]byte(tt.body)); got != tt.want {
				t.Errorf("ShapeOf(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}

	if got := ShapeOf([]byte("RIFF\x24\x00\x00\x00WAVE")); got != ShapeAudio {
		t.Errorf("expected raw WAV sniffed as audio, got %q", got)
	}
}

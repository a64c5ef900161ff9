package classify

// ServiceKind is the fixed category of operation a request performs. Its
// value doubles as the service label on every metric, so the vocabulary is
// closed: new kinds are added here, never minted from request content.
type ServiceKind string

const (
	Translation            ServiceKind = "translation"
	TTS                    ServiceKind = "tts"
	ASR                    ServiceKind = "asr"
	OCR                    ServiceKind = "ocr"
	NER                    ServiceKind = "ner"
	Transliteration        ServiceKind = "transliteration"
	LanguageDetection      ServiceKind = "language_detection"
	SpeakerDiarization     ServiceKind = "speaker_diarization"
	LanguageDiarization    ServiceKind = "language_diarization"
	AudioLanguageDetection ServiceKind = "audio_language_detection"
	Unknown                ServiceKind = "unknown"
)

// KindFromString maps a configured service name to its ServiceKind,
// returning Unknown for anything outside the vocabulary.
func KindFromString(s string) ServiceKind {
	switch ServiceKind(s) {
	case Translation, TTS, ASR, OCR, NER, Transliteration,
		LanguageDetection, SpeakerDiarization, LanguageDiarization,
		AudioLanguageDetection:
		return ServiceKind(s)
	default:
		return Unknown
	}
}

// Shape is the coarse payload shape used to disambiguate routes that serve
// more than one service kind.
type Shape string

const (
	ShapeNone  Shape = ""
	ShapeText  Shape = "text"
	ShapeAudio Shape = "audio"
	ShapeImage Shape = "image"
)

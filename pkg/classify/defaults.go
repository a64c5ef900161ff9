package classify

// DefaultRules returns the built-in route vocabulary. The table is data,
// not logic: deployments with different URL schemes override it wholesale
// in configuration.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/translation", Service: Translation},
		{Prefix: "/translate", Service: Translation},
		{Prefix: "/nmt", Service: Translation},

		{Prefix: "/asr", Service: ASR},
		{Prefix: "/transcribe", Service: ASR},
		{Prefix: "/speech", Service: ASR},

		{Prefix: "/tts", Service: TTS},
		{Prefix: "/synthesize", Service: TTS},
		{Prefix: "/speak", Service: TTS},

		{Prefix: "/ocr", Service: OCR},

		{Prefix: "/ner", Service: NER},

		{Prefix: "/transliteration", Service: Transliteration},
		{Prefix: "/xlit", Service: Transliteration},

		// Audio language detection shares the detection vocabulary and is
		// told apart by the payload carrying audio, so the shape-gated
		// rules come first.
		{Prefix: "/language-detection", Service: AudioLanguageDetection, Shape: ShapeAudio},
		{Prefix: "/detect-language", Service: AudioLanguageDetection, Shape: ShapeAudio},
		{Prefix: "/language-detection", Service: LanguageDetection},
		{Prefix: "/detect-language", Service: LanguageDetection},

		{Prefix: "/speaker-diarization", Service: SpeakerDiarization},
		{Prefix: "/language-diarization", Service: LanguageDiarization},
	}
}

package extract

import "encoding/binary"

// wavDuration computes the exact playback length in seconds of a WAV file
// from its fmt and data chunks. It walks the RIFF chunk list rather than
// assuming fixed offsets, since encoders commonly insert LIST or fact
// chunks before the data. Returns false for anything that is not a
// well-formed PCM WAV.
func wavDuration(b []byte) (float64, bool) {
	// RIFF header: "RIFF" <size> "WAVE"
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	var dataSize uint32
	haveFmt, haveData := false, false

	off := 12
	for off+8 <= len(b) {
		chunkID := string(b[off : off+4])
		chunkSize := binary.LittleEndian.Uint32(b[off+4 : off+8])
		body := off + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(b) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(b[body+8 : body+12])
			haveFmt = true
		case "data":
			dataSize = chunkSize
			haveData = true
		}

		if haveFmt && haveData {
			break
		}

		// Chunks are word-aligned: odd sizes carry a pad byte.
		off = body + int(chunkSize)
		if chunkSize%2 == 1 {
			off++
		}
	}

	if !haveFmt || !haveData || byteRate == 0 {
		return 0, false
	}
	return float64(dataSize) / float64(byteRate), true
}

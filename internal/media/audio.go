package media

import (
	"bytes"
	"fmt"
)

// MaxAudioSize is the upload limit for recorded voice clips.
const MaxAudioSize = 10 << 20

// audioSignatures maps magic byte prefixes to MIME types for the clip
// containers browsers produce from MediaRecorder.
var audioSignatures = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("RIFF"), "audio/wav"},
	{[]byte("OggS"), "audio/ogg"},
	{[]byte{0x1A, 0x45, 0xDF, 0xA3}, "audio/webm"},
	{[]byte("ID3"), "audio/mpeg"},
	{[]byte{0xFF, 0xFB}, "audio/mpeg"},
}

// AudioInfo describes a validated voice clip.
type AudioInfo struct {
	MIME string
	Size int
}

// InspectAudio validates a recorded clip: size cap and byte-sniffed
// container format.
func InspectAudio(data []byte) (*AudioInfo, error) {
	if len(data) > MaxAudioSize {
		return nil, fmt.Errorf("voice clip exceeds 10MB")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty voice clip")
	}

	for _, sig := range audioSignatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return &AudioInfo{MIME: sig.mime, Size: len(data)}, nil
		}
	}
	return nil, fmt.Errorf("unrecognized audio format (expected wav, ogg, webm or mp3)")
}

// ClipFilename picks an upload filename matching the sniffed container.
func ClipFilename(mime string) string {
	switch mime {
	case "audio/ogg":
		return "recording.ogg"
	case "audio/webm":
		return "recording.webm"
	case "audio/mpeg":
		return "recording.mp3"
	default:
		return "recording.wav"
	}
}

package wavy

import (
	"bytes"
	"os"
)

// playlistMarker is the HLS playlist global header marker. Its presence
// anywhere in the byte sequence is sufficient; no stronger parsing is
// required at ingest (§4.1).
const playlistMarker = "#EXTM3U"

// tsSyncByte is the MPEG-TS sync byte that must open a transport-stream
// segment.
const tsSyncByte = 0x47

// fragmentedMP4HeaderSize is the minimum number of leading bytes a
// fragmented-MP4 file must have before its box type can be inspected.
const fragmentedMP4HeaderSize = 12

// ValidatePlaylist succeeds iff data contains the playlist global header
// marker.
func ValidatePlaylist(data []byte) bool {
	return bytes.Contains(data, []byte(playlistMarker))
}

// ValidateTransportStream succeeds iff data is non-empty and its first byte
// is the MPEG-TS sync byte.
func ValidateTransportStream(data []byte) bool {
	return len(data) > 0 && data[0] == tsSyncByte
}

// ValidateFragmentedMP4 opens path and checks that it begins with an `ftyp`
// box header and that the file contents contain both a `moof` and an `mdat`
// box somewhere. Per §4.3, any failure here (short file, wrong box type,
// missing boxes) is a soft rejection: the staging sweep keeps the file
// regardless and only logs a warning, so the boolean result here is purely
// informational for that warning, never a reason to delete.
func ValidateFragmentedMP4(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	if len(data) < fragmentedMP4HeaderSize {
		return false, nil
	}
	if string(data[4:8]) != "ftyp" {
		return false, nil
	}

	return bytes.Contains(data, []byte("moof")) && bytes.Contains(data, []byte("mdat")), nil
}

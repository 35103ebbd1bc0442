package wavy

import "path/filepath"

// MediaTypeForFile returns the Content-Type for a segment fetch response,
// chosen by file extension (case-sensitive, §9 Media-type mapping).
func MediaTypeForFile(name string) string {
	switch filepath.Ext(name) {
	case ExtPlaylist:
		return "application/vnd.apple.mpegurl"
	case ExtTransportStream:
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

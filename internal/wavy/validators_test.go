package wavy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePlaylist(t *testing.T) {
	if !ValidatePlaylist([]byte("#EXTM3U\n#EXT-X-VERSION:3\n")) {
		t.Error("expected playlist with marker to be valid")
	}
	if ValidatePlaylist([]byte("not a playlist")) {
		t.Error("expected playlist without marker to be invalid")
	}
}

func TestValidateTransportStream(t *testing.T) {
	if !ValidateTransportStream([]byte{0x47, 0x40, 0x00}) {
		t.Error("expected TS with sync byte to be valid")
	}
	if ValidateTransportStream([]byte{0x00, 0x40, 0x00}) {
		t.Error("expected TS with wrong first byte to be invalid")
	}
	if ValidateTransportStream(nil) {
		t.Error("expected empty TS to be invalid")
	}
}

func TestValidateFragmentedMP4(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.m4s")
	header := append([]byte{0, 0, 0, 24}, []byte("ftyp")...)
	body := append(header, []byte("restofbox moof .... mdat ....")...)
	if err := os.WriteFile(good, body, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := ValidateFragmentedMP4(good)
	if err != nil {
		t.Fatalf("ValidateFragmentedMP4: %v", err)
	}
	if !ok {
		t.Error("expected valid fragmented mp4 to report ok=true")
	}

	missingBoxes := filepath.Join(dir, "missing.m4s")
	headerOnly := append([]byte{0, 0, 0, 24}, []byte("ftyp")...)
	headerOnly = append(headerOnly, []byte("nothing interesting here")...)
	if err := os.WriteFile(missingBoxes, headerOnly, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = ValidateFragmentedMP4(missingBoxes)
	if err != nil {
		t.Fatalf("ValidateFragmentedMP4: %v", err)
	}
	if ok {
		t.Error("expected fragmented mp4 missing moof/mdat to report ok=false")
	}

	short := filepath.Join(dir, "short.m4s")
	if err := os.WriteFile(short, []byte{0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = ValidateFragmentedMP4(short)
	if err != nil {
		t.Fatalf("ValidateFragmentedMP4: %v", err)
	}
	if ok {
		t.Error("expected too-short file to report ok=false")
	}
}

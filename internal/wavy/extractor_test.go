package wavy

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildArchive(t *testing.T, files map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func zstCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("new zstd writer: %v", err)
	}
	return enc.EncodeAll(data, nil)
}

func TestExtract_flatArchive(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"index.m3u8": []byte("#EXTM3U\n"),
		"seg_0.ts":   {0x47, 0x40, 0x00},
	})

	destDir := t.TempDir()
	found, err := Extract(archive, destDir, testLogger())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}

	for _, name := range []string{"index.m3u8", "seg_0.ts"} {
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			t.Errorf("expected extracted file %s: %v", name, err)
		}
	}
}

func TestExtract_nestedDirectoryFollowed(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"sub/deep.ts": {0x47, 0x00, 0x00},
	})

	destDir := t.TempDir()
	found, err := Extract(archive, destDir, testLogger())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}

	if _, err := os.Stat(filepath.Join(destDir, "sub", "deep.ts")); err != nil {
		t.Errorf("expected nested file to be followed into a subdirectory: %v", err)
	}

	// The staging sweep walks destDir non-recursively, so a file inside a
	// subdirectory won't appear as a top-level entry.
	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	foundFlatFile := false
	for _, e := range entries {
		if !e.IsDir() {
			foundFlatFile = true
		}
	}
	if foundFlatFile {
		t.Error("did not expect a flat file at the top level for a nested-only archive")
	}
}

func TestExtract_opensFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.tar.gz")
	if _, err := Extract(missing, t.TempDir(), testLogger()); err == nil {
		t.Fatal("expected error opening a nonexistent archive")
	}
}

func TestExtract_nestedZstDecompression(t *testing.T) {
	inner := []byte{0x47, 0x40, 0x00, 0x10}
	compressed := zstCompress(t, inner)

	archive := buildArchive(t, map[string][]byte{
		"seg_0.ts.zst": compressed,
	})

	destDir := t.TempDir()
	found, err := Extract(archive, destDir, testLogger())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}

	decompressed, err := os.ReadFile(filepath.Join(destDir, "seg_0.ts"))
	if err != nil {
		t.Fatalf("expected decompressed sibling file: %v", err)
	}
	if !bytes.Equal(decompressed, inner) {
		t.Errorf("decompressed content mismatch: got %v, want %v", decompressed, inner)
	}

	if _, err := os.Stat(filepath.Join(destDir, "seg_0.ts.zst")); !os.IsNotExist(err) {
		t.Errorf("expected .zst file removed after successful decompression, stat err=%v", err)
	}
}

func TestExtract_corruptZstKeepsCompressedFile(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"seg_0.ts.zst": []byte("not actually zstd data"),
	})

	destDir := t.TempDir()
	found, err := Extract(archive, destDir, testLogger())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !found {
		t.Fatal("expected found=true (the .zst file itself was written)")
	}

	if _, err := os.Stat(filepath.Join(destDir, "seg_0.ts.zst")); err != nil {
		t.Errorf("expected corrupt .zst file to be kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "seg_0.ts")); !os.IsNotExist(err) {
		t.Errorf("did not expect a decompressed sibling for corrupt input, stat err=%v", err)
	}
}


package wavy

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Extract reads the gzip-compressed tar archive at archivePath and writes
// every entry into destDir, following nested directories as the archive
// describes them. It returns true iff at least one entry was successfully
// written (§4.2 "valid files found"). Opening the archive is fatal; per-entry
// write failures are logged and skipped without aborting the rest of the
// archive.
func Extract(archivePath, destDir string, log *slog.Logger) (bool, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return false, errors.Wrap(err, "open archive")
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	found := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("tar stream read failed", slog.String("error", err.Error()))
			break
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			// fall through to write the entry below
		default:
			continue
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			log.Warn("skipping entry outside archive root", slog.String("entry", hdr.Name))
			continue
		}

		dest := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			log.Warn("entry mkdir failed", slog.String("entry", hdr.Name), slog.String("error", err.Error()))
			continue
		}

		if err := writeEntry(dest, tr, os.FileMode(hdr.Mode&0o777)); err != nil {
			log.Warn("entry write failed", slog.String("entry", hdr.Name), slog.String("error", err.Error()))
			continue
		}
		found = true

		if strings.HasSuffix(name, zstSuffix) {
			if err := decompressZst(dest); err != nil {
				log.Warn("nested decompression failed, keeping compressed file",
					slog.String("entry", name), slog.String("error", err.Error()))
			}
		}
	}

	return found, nil
}

func writeEntry(dest string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// decompressZst decompresses path in place, writing a sibling file with the
// ".zst" suffix stripped. On success the compressed file is removed; on any
// failure the compressed file is left untouched (§4.2 nested decompression).
func decompressZst(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	outPath := strings.TrimSuffix(path, zstSuffix)
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		os.Remove(outPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return err
	}

	return os.Remove(path)
}

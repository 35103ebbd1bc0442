package wavy

import (
	"log/slog"
	"os"
	"path/filepath"

	"wavyserver/internal/platform/metrics"

	"github.com/pkg/errors"
)

// ErrNoValidFiles is returned by Stage when every staged file was rejected or
// nothing was ever extracted (§4.3 step 6).
var ErrNoValidFiles = errors.New("no valid files after sweep")

// sweepOutcome records whether a staged file should be promoted and, if so,
// whether it was kept despite failing its validator (a warning rather than a
// hard rejection).
type sweepOutcome struct {
	keep bool
	warn bool
}

// survivor is a staged file that passed the sweep and is waiting to be
// renamed into the asset directory.
type survivor struct {
	path string
	name string
}

// Stage runs the full §4.3 orchestration for one upload: extract the staged
// archive, sweep every extracted file through its format validator, and
// rename survivors into the owner/asset storage tree. It returns the number
// of files promoted; zero is reported as ErrNoValidFiles. The owner and
// asset directories are created only once a survivor is known to exist, so a
// failed upload never leaves a phantom owner directory behind (§3).
func Stage(cfg *Config, owner, assetID, archivePath string, log *slog.Logger, met *metrics.Metrics) (int, error) {
	stagingDir := filepath.Join(cfg.TempRoot, assetID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create staging directory")
	}
	defer os.RemoveAll(stagingDir)

	found, err := Extract(archivePath, stagingDir, log)
	if err != nil {
		return 0, errors.Wrap(err, "extract archive")
	}
	if !found {
		return 0, ErrNoValidFiles
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return 0, errors.Wrap(err, "read staging directory")
	}

	var survivors []survivor
	for _, entry := range entries {
		// Non-recursive: a subdirectory left over from an archive with
		// nested paths is never promoted, which is how §4.2's "followed but
		// flat layout assumed" becomes an indirect input error here.
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		full := filepath.Join(stagingDir, name)

		outcome := sweepFile(full, name, log)
		if !outcome.keep {
			os.Remove(full)
			met.IncValidatorRejected()
			continue
		}
		if outcome.warn {
			log.Warn("keeping file despite validator warning", slog.String("file", name))
			met.IncValidatorWarned()
		}

		survivors = append(survivors, survivor{path: full, name: name})
	}

	if len(survivors) == 0 {
		return 0, ErrNoValidFiles
	}

	assetDir := AssetDir(cfg.StorageRoot, owner, assetID)
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create asset directory")
	}

	promoted := 0
	for _, sv := range survivors {
		dest := filepath.Join(assetDir, sv.name)
		if err := os.Rename(sv.path, dest); err != nil {
			log.Error("promote failed", slog.String("file", sv.name), slog.String("error", err.Error()))
			continue
		}
		promoted++
	}

	if promoted == 0 {
		os.RemoveAll(assetDir)
		pruneOwnerDirIfEmpty(cfg.StorageRoot, owner)
		return 0, ErrNoValidFiles
	}

	return promoted, nil
}

// sweepFile classifies one staged file by extension and applies the §4.3
// validator-sweep table.
func sweepFile(path, name string, log *slog.Logger) sweepOutcome {
	switch filepath.Ext(name) {
	case ExtPlaylist:
		data, err := os.ReadFile(path)
		if err != nil || !ValidatePlaylist(data) {
			return sweepOutcome{keep: false}
		}
		return sweepOutcome{keep: true}

	case ExtTransportStream:
		data, err := os.ReadFile(path)
		if err != nil || !ValidateTransportStream(data) {
			return sweepOutcome{keep: false}
		}
		return sweepOutcome{keep: true}

	case ExtFragmentedMP4:
		ok, err := ValidateFragmentedMP4(path)
		if err != nil {
			log.Warn("fragmented mp4 validator read failed", slog.String("file", name), slog.String("error", err.Error()))
		}
		// Always kept: a missing moof/mdat is a warning, not a rejection.
		return sweepOutcome{keep: true, warn: !ok}

	case ExtContainer:
		log.Debug("container file promoted unconditionally", slog.String("file", name))
		return sweepOutcome{keep: true}

	case ExtMetadata:
		return sweepOutcome{keep: true}

	default:
		return sweepOutcome{keep: false}
	}
}

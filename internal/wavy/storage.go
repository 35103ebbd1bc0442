package wavy

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Recognized file extensions, matched case-sensitively (§9 Media-type mapping).
const (
	ExtPlaylist        = ".m3u8"
	ExtTransportStream = ".ts"
	ExtFragmentedMP4   = ".m4s"
	ExtContainer       = ".mp4"
	ExtMetadata        = ".toml"

	// zstSuffix is the recognized block-compression suffix for nested
	// per-entry decompression during extraction (§4.2).
	zstSuffix = ".zst"
)

// errStorageRootNotDirectory is returned by ListOwnersAndAssets when the
// storage root exists but is not a directory (§4.5.3: "Non-directory storage
// root ⇒ 500").
var errStorageRootNotDirectory = errors.New("storage root exists but is not a directory")

// OwnerDir returns the first-level directory for an owner under root.
func OwnerDir(root, owner string) string {
	return filepath.Join(root, owner)
}

// AssetDir returns the second-level directory for an owner's asset under root.
func AssetDir(root, owner, assetID string) string {
	return filepath.Join(root, owner, assetID)
}

// SegmentPath returns the full path to a file within an owner's asset.
func SegmentPath(root, owner, assetID, file string) string {
	return filepath.Join(root, owner, assetID, file)
}

// AssetArchivePath returns the transient staged-archive path for an asset-id
// under the temp root, before extraction begins (§4.5.2).
func AssetArchivePath(tempRoot, assetID string) string {
	return filepath.Join(tempRoot, assetID+".tar.gz")
}

// OwnerAssets is one entry of the owner/asset listing (§4.5.3).
type OwnerAssets struct {
	Owner  string
	Assets []string
}

// ListOwnersAndAssets walks root one level deep and returns, for each owner
// subdirectory, the asset-id subdirectories beneath it. The result is sorted
// for deterministic output. A missing storage root is reported via
// os.ErrNotExist; a storage root that exists but isn't a directory is
// reported via errStorageRootNotDirectory.
func ListOwnersAndAssets(root string) ([]OwnerAssets, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errStorageRootNotDirectory
	}

	ownerEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(err, "read storage root")
	}

	var result []OwnerAssets
	for _, oe := range ownerEntries {
		if !oe.IsDir() {
			continue
		}

		assetEntries, err := os.ReadDir(filepath.Join(root, oe.Name()))
		if err != nil {
			continue
		}

		var assets []string
		for _, ae := range assetEntries {
			if ae.IsDir() {
				assets = append(assets, ae.Name())
			}
		}
		sort.Strings(assets)

		result = append(result, OwnerAssets{Owner: oe.Name(), Assets: assets})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Owner < result[j].Owner })

	return result, nil
}

// pruneOwnerDirIfEmpty removes an owner's directory if it holds no assets, so
// an upload that promotes nothing never leaves a phantom owner behind for
// ListOwnersAndAssets to report (§3: an owner exists only after a successful
// upload).
func pruneOwnerDirIfEmpty(root, owner string) {
	dir := OwnerDir(root, owner)
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	os.Remove(dir)
}

// hasPathTraversal reports whether a single path component contains a
// separator or a ".." segment, which the router must reject outright rather
// than let reach the filesystem (§4.5.4 Path traversal).
func hasPathTraversal(component string) bool {
	if component == "" {
		return true
	}
	if strings.ContainsAny(component, "/\\") {
		return true
	}
	return strings.Contains(component, "..")
}

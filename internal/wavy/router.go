package wavy

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	"wavyserver/internal/platform/metrics"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// MetadataParser is the out-of-core tabular-metadata collaborator (§1). It is
// satisfied structurally by internal/metadata.LineParser; the router only
// needs the Parse signature.
type MetadataParser interface {
	Parse(data []byte) (map[string]string, error)
}

// trailingBoundary matches a metadata body's first line-initial run of dashes
// and everything after it, up to the end of the body.
var trailingBoundary = regexp.MustCompile(`(?s)\r?\n-{2,}.*$`)

// Router implements the §4.5 method×path dispatch table.
type Router struct {
	cfg      *Config
	log      *slog.Logger
	met      *metrics.Metrics
	metadata MetadataParser
}

// NewRouter builds a Router over the given config, logger, metrics sink, and
// metadata parser collaborator.
func NewRouter(cfg *Config, log *slog.Logger, met *metrics.Metrics, metadata MetadataParser) *Router {
	return &Router{cfg: cfg, log: log, met: met, metadata: metadata}
}

// Dispatch routes one parsed request to its handler and returns the response
// to write. It never returns nil.
func (rt *Router) Dispatch(peer string, req *http.Request, body []byte) *Response {
	rt.met.IncRequests()

	switch req.Method {
	case http.MethodPost:
		if req.URL.Path == MetadataUploadPath {
			return rt.handleMetadataUpload(body)
		}
		return rt.handleArchiveUpload(peer, body)

	case http.MethodGet:
		if req.URL.Path == ClientsPath {
			return rt.handleListing()
		}
		return rt.handleSegmentFetch(req.URL.Path)

	default:
		return textResponse(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) handleMetadataUpload(body []byte) *Response {
	inner := stripBoundaries(body, rt.cfg.MetadataTopBoundary)

	fields, err := rt.metadata.Parse(inner)
	if err != nil {
		rt.log.Warn("metadata parse failed", slog.String("error", err.Error()))
		return textResponse(http.StatusBadRequest, "invalid metadata body")
	}
	if len(fields) == 0 {
		return textResponse(http.StatusBadRequest, "empty metadata body")
	}

	rt.met.IncUpload(len(body))
	return textResponse(http.StatusOK, "metadata accepted")
}

// stripBoundaries removes a literal leading top boundary and a trailing run
// of dashes from a metadata upload body (§4.5.1).
func stripBoundaries(body []byte, topBoundary string) []byte {
	s := string(body)
	s = strings.TrimPrefix(s, topBoundary)
	s = trailingBoundary.ReplaceAllString(s, "")
	return []byte(strings.TrimSpace(s))
}

func (rt *Router) handleArchiveUpload(peer string, body []byte) *Response {
	if len(body) == 0 {
		return textResponse(http.StatusBadRequest, "empty upload body")
	}

	assetID := GenerateAssetID()
	archivePath := AssetArchivePath(rt.cfg.TempRoot, assetID)
	defer os.Remove(archivePath)

	if err := os.WriteFile(archivePath, body, 0o644); err != nil {
		rt.log.Error("write staged archive failed", slog.String("error", err.Error()))
		return textResponse(http.StatusInternalServerError, "internal error")
	}

	promoted, err := Stage(rt.cfg, peer, assetID, archivePath, rt.log, rt.met)
	if err != nil {
		rt.log.Warn("staging failed", slog.String("owner", peer), slog.String("error", err.Error()))
		return textResponse(http.StatusBadRequest, "no valid files in upload")
	}

	rt.met.IncUpload(len(body))
	rt.met.AddAssetsPromoted(promoted)
	rt.log.Info("upload promoted",
		slog.String("owner", peer),
		slog.String("asset_id", assetID),
		slog.String("size", humanize.Bytes(uint64(len(body)))),
		slog.Int("files_promoted", promoted),
	)

	resp := textResponse(http.StatusOK, fmt.Sprintf("promoted %d files", promoted))
	resp.Header.Set("Client-ID", assetID)
	return resp
}

func (rt *Router) handleListing() *Response {
	owners, err := ListOwnersAndAssets(rt.cfg.StorageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return textResponse(http.StatusNotFound, "no assets")
		}
		if errors.Is(err, errStorageRootNotDirectory) {
			return textResponse(http.StatusInternalServerError, "storage root misconfigured")
		}
		rt.log.Error("listing failed", slog.String("error", err.Error()))
		return textResponse(http.StatusInternalServerError, "internal error")
	}
	if len(owners) == 0 {
		return textResponse(http.StatusNotFound, "no assets")
	}

	var b strings.Builder
	for _, oa := range owners {
		fmt.Fprintf(&b, "%s:\n", oa.Owner)
		for _, asset := range oa.Assets {
			fmt.Fprintf(&b, "  - %s\n", asset)
		}
	}

	resp := textResponse(http.StatusOK, b.String())
	return resp
}

func (rt *Router) handleSegmentFetch(path string) *Response {
	parts := splitPathComponents(path)
	if len(parts) != 4 || parts[0] != "hls" {
		return textResponse(http.StatusBadRequest, "malformed path")
	}
	owner, assetID, file := parts[1], parts[2], parts[3]
	if hasPathTraversal(owner) || hasPathTraversal(assetID) || hasPathTraversal(file) {
		return textResponse(http.StatusBadRequest, "malformed path")
	}

	full := SegmentPath(rt.cfg.StorageRoot, owner, assetID, file)
	info, err := os.Stat(full)
	if err != nil {
		return textResponse(http.StatusNotFound, "not found")
	}
	if !info.Mode().IsRegular() {
		return textResponse(http.StatusNotFound, "not found")
	}

	data, err := os.ReadFile(full)
	if err != nil {
		rt.log.Error("segment read failed", slog.String("path", full), slog.String("error", err.Error()))
		return textResponse(http.StatusInternalServerError, "internal error")
	}

	resp := NewResponse(http.StatusOK, data)
	resp.Header.Set("Content-Type", MediaTypeForFile(file))
	return resp
}

// splitPathComponents splits a URL path on "/" and drops empty components,
// so "/hls/a/b/c" and "hls/a/b/c/" both yield ["hls","a","b","c"].
func splitPathComponents(path string) []string {
	raw := strings.Split(path, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

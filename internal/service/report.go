package service

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/heapsnap-analysis/pkg/compression"
	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// reportView is the on-disk shape of an IngestSummary: the duration is
// rendered as milliseconds rather than a time.Duration string, and node
// names/types are kept out of the top-level summary to stay small.
type reportView struct {
	SnapshotSource string                  `json:"snapshot_source"`
	DatabasePath   string                  `json:"database_path"`
	NodeCount      int                     `json:"node_count"`
	EdgeCount      int                     `json:"edge_count"`
	LocationCount  int                     `json:"location_count"`
	DurationMS     int64                   `json:"duration_ms"`
	TopRetainers   []reportRetainerView    `json:"top_retainers"`
	Suggestions    []reportSuggestionView  `json:"suggestions"`
	Note           string                  `json:"note"`
}

type reportRetainerView struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	RetainSize int64  `json:"retain_size"`
	SelfSize   int64  `json:"self_size"`
	Distance   uint64 `json:"distance"`
}

type reportSuggestionView struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

const retainSizeNote = "retain_size is an additive BFS approximation, not dominator-tree retained size"

// WriteReport serializes summary as JSON to path. A ".gz" suffix
// gzip-compresses the output; a ".zst" suffix uses zstd instead; any other
// suffix writes plain JSON.
func WriteReport(summary *IngestSummary, path string) error {
	view := reportView{
		SnapshotSource: summary.SnapshotSource,
		DatabasePath:   summary.DatabasePath,
		NodeCount:      summary.NodeCount,
		EdgeCount:      summary.EdgeCount,
		LocationCount:  summary.LocationCount,
		DurationMS:     summary.Duration.Milliseconds(),
		Note:           retainSizeNote,
	}
	for _, r := range summary.TopRetainers {
		view.TopRetainers = append(view.TopRetainers, reportRetainerView{
			ID: r.ID, Name: r.Name, Type: r.Type,
			RetainSize: r.RetainSize, SelfSize: r.SelfSize, Distance: r.Distance,
		})
	}
	for _, s := range summary.Suggestions {
		view.Suggestions = append(view.Suggestions, reportSuggestionView{
			Name: s.Name, Severity: s.Severity, Description: s.Description,
		})
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.CodePersistError, "failed to marshal ingestion summary", err)
	}

	out, err := compressForSuffix(path, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CodeIOError, "failed to write report file", err)
	}
	return nil
}

func compressForSuffix(path string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		c := compression.NewGzipCompressor(compression.LevelDefault)
		out, err := c.Compress(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodePersistError, "failed to gzip-compress report", err)
		}
		return out, nil
	case strings.HasSuffix(path, ".zst"):
		c, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodePersistError, "failed to construct zstd compressor", err)
		}
		defer c.Close()
		out, err := c.Compress(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodePersistError, "failed to zstd-compress report", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapsnap-analysis/internal/advisor"
	"github.com/heapsnap-analysis/internal/statistics"
	"github.com/heapsnap-analysis/pkg/compression"
)

func sampleSummary() *IngestSummary {
	return &IngestSummary{
		SnapshotSource: "chain.heapsnapshot",
		DatabasePath:   "chain.db3",
		NodeCount:      2,
		EdgeCount:      1,
		LocationCount:  0,
		Duration:       250 * time.Millisecond,
		TopRetainers: []statistics.TopRetainerEntry{
			{ID: 1, Name: "Root", Type: "object", RetainSize: 17, SelfSize: 10, Distance: 0},
		},
		Suggestions: []advisor.Suggestion{
			{Name: "large_retainer", Severity: "warning", Description: "Root retains a large share of the heap"},
		},
	}
}

func TestWriteReport_PlainJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, WriteReport(sampleSummary(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var view reportView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "chain.heapsnapshot", view.SnapshotSource)
	assert.Equal(t, int64(250), view.DurationMS)
	assert.Equal(t, retainSizeNote, view.Note)
	require.Len(t, view.TopRetainers, 1)
	assert.Equal(t, "Root", view.TopRetainers[0].Name)
	require.Len(t, view.Suggestions, 1)
	assert.Equal(t, "large_retainer", view.Suggestions[0].Name)
}

func TestWriteReport_GzipSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json.gz")

	require.NoError(t, WriteReport(sampleSummary(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	gz := compression.NewGzipCompressor(compression.LevelDefault)
	data, err := gz.Decompress(raw)
	require.NoError(t, err)

	var view reportView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "chain.db3", view.DatabasePath)
}

func TestWriteReport_ZstdSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json.zst")

	require.NoError(t, WriteReport(sampleSummary(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	require.NoError(t, err)
	defer zc.Close()

	data, err := zc.Decompress(raw)
	require.NoError(t, err)

	var view reportView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, 2, view.NodeCount)
}

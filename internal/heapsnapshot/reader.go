package heapsnapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Read slurps the entire snapshot from r and decodes its JSON envelope. The
// snapshot is never streamed: per spec, decoding only begins once the whole
// document is resident in memory.
func Read(ctx context.Context, r io.Reader) (*RawSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, errIO("snapshot read canceled", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errIO("failed to read snapshot", err)
	}
	if len(data) == 0 {
		return nil, errIO("snapshot is empty", io.ErrUnexpectedEOF)
	}

	var raw RawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errParse("malformed snapshot JSON", err)
	}

	if err := validateRequiredPaths(&raw); err != nil {
		return nil, err
	}

	return &raw, nil
}

// validateRequiredPaths checks that the paths required by §3 of the data
// model are present and internally consistent before any decoding begins.
func validateRequiredPaths(raw *RawSnapshot) error {
	meta := raw.Snapshot.Meta

	if len(meta.NodeFields) == 0 {
		return errParse("snapshot.meta.node_fields is required", nil)
	}
	if len(meta.NodeTypes) != len(meta.NodeFields) {
		return errParse(fmt.Sprintf(
			"node_types length %d does not match node_fields length %d",
			len(meta.NodeTypes), len(meta.NodeFields)), nil)
	}
	if len(meta.EdgeFields) == 0 {
		return errParse("snapshot.meta.edge_fields is required", nil)
	}
	if len(meta.EdgeTypes) != len(meta.EdgeFields) {
		return errParse(fmt.Sprintf(
			"edge_types length %d does not match edge_fields length %d",
			len(meta.EdgeTypes), len(meta.EdgeFields)), nil)
	}
	if len(raw.Nodes)%len(meta.NodeFields) != 0 {
		return errParse(fmt.Sprintf(
			"nodes array length %d is not a multiple of node field count %d",
			len(raw.Nodes), len(meta.NodeFields)), nil)
	}
	if len(raw.Edges)%len(meta.EdgeFields) != 0 {
		return errParse(fmt.Sprintf(
			"edges array length %d is not a multiple of edge field count %d",
			len(raw.Edges), len(meta.EdgeFields)), nil)
	}
	if len(raw.Locations)%4 != 0 {
		return errParse(fmt.Sprintf(
			"locations array length %d is not a multiple of 4", len(raw.Locations)), nil)
	}

	return nil
}

package heapsnapshot

import (
	"context"
	"fmt"

	"github.com/heapsnap-analysis/pkg/collections"
	"github.com/heapsnap-analysis/pkg/filter"
)

const locationFieldCount = 4

// Build decodes the node and edge flat arrays into a Graph: one pass over
// nodes, and for each node one pass over its edges. Every decoded edge is
// kept as an EdgeRow for unconditional persistence; only edges surviving ef
// are kept as graph successors for the distance/retain-size walk.
func Build(ctx context.Context, raw *RawSnapshot, ef *filter.EdgeFilter) (*Graph, error) {
	nodeCols, err := BuildNodeColumns(raw.Snapshot.Meta)
	if err != nil {
		return nil, err
	}
	edgeCols, err := BuildEdgeColumns(raw.Snapshot.Meta)
	if err != nil {
		return nil, err
	}

	idOffset, err := nodeCols.requireOffset("id")
	if err != nil {
		return nil, err
	}
	typeOffset, err := nodeCols.requireOffset("type")
	if err != nil {
		return nil, err
	}
	nameOffset, err := nodeCols.requireOffset("name")
	if err != nil {
		return nil, err
	}
	selfSizeOffset, err := nodeCols.requireOffset("self_size")
	if err != nil {
		return nil, err
	}
	edgeCountOffset, err := nodeCols.requireOffset("edge_count")
	if err != nil {
		return nil, err
	}

	edgeTypeOffset, err := edgeCols.requireOffset("type")
	if err != nil {
		return nil, err
	}
	edgeNameOffset, err := edgeCols.requireOffset("name_or_index")
	if err != nil {
		return nil, err
	}
	edgeToOffset, err := edgeCols.requireOffset("to_node")
	if err != nil {
		return nil, err
	}

	nodeWidth := len(nodeCols.Columns)
	edgeWidth := len(edgeCols.Columns)
	nodeCount := len(raw.Nodes) / nodeWidth

	g := &Graph{
		Nodes:         make(map[uint64]*NodeRecord, nodeCount),
		Order:         make([]uint64, 0, nodeCount),
		IDIndex:       make(map[uint64]int, nodeCount),
		rawNodes:      raw.Nodes,
		idFieldOffset: idOffset,
	}

	if ef == nil {
		ef = filter.DefaultFilter
	}

	edgeCursor := 0
	for nodePos := 0; nodePos < len(raw.Nodes); nodePos += nodeWidth {
		if nodePos%(nodeWidth*4096) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errIO("graph build canceled", err)
			}
		}

		rec := raw.Nodes[nodePos : nodePos+nodeWidth]

		_, idNum, idIsString, err := nodeCols.DecodeField(idOffset, rec[idOffset], raw.Strings)
		if err != nil {
			return nil, err
		}
		if idIsString {
			return nil, errDecode("node id field decoded as a string, expected a number", nil)
		}
		id := uint64(idNum)

		typeStr, typeNum, typeIsString, err := nodeCols.DecodeField(typeOffset, rec[typeOffset], raw.Strings)
		if err != nil {
			return nil, err
		}
		nodeType := decodedToText(typeStr, typeNum, typeIsString)

		nameStr, nameNum, nameIsString, err := nodeCols.DecodeField(nameOffset, rec[nameOffset], raw.Strings)
		if err != nil {
			return nil, err
		}
		name := decodedToText(nameStr, nameNum, nameIsString)

		_, selfSize, _, err := nodeCols.DecodeField(selfSizeOffset, rec[selfSizeOffset], raw.Strings)
		if err != nil {
			return nil, err
		}

		_, edgeCount, _, err := nodeCols.DecodeField(edgeCountOffset, rec[edgeCountOffset], raw.Strings)
		if err != nil {
			return nil, err
		}

		nr := &NodeRecord{
			ID:         id,
			Name:       name,
			Type:       nodeType,
			SelfSize:   selfSize,
			EdgeCount:  edgeCount,
			RetainSize: selfSize,
		}

		if edgeCursor+int(edgeCount)*edgeWidth > len(raw.Edges) {
			return nil, errParse(fmt.Sprintf(
				"node %d declares %d edges, exceeding the remaining edges array", id, edgeCount), nil)
		}

		// Essential successors are accumulated into a pooled scratch buffer
		// first, since most nodes discard some or all of their edges to the
		// filter; nr.Successors is then sized to exactly what survived.
		succBuf := collections.GetUint64Slice()
		for i := int64(0); i < edgeCount; i++ {
			erec := raw.Edges[edgeCursor : edgeCursor+edgeWidth]
			edgeCursor += edgeWidth

			etStr, etNum, etIsString, err := edgeCols.DecodeField(edgeTypeOffset, erec[edgeTypeOffset], raw.Strings)
			if err != nil {
				return nil, err
			}
			edgeType := decodedToText(etStr, etNum, etIsString)

			enStr, enNum, enIsString, err := edgeCols.DecodeField(edgeNameOffset, erec[edgeNameOffset], raw.Strings)
			if err != nil {
				return nil, err
			}
			edgeName := decodedToText(enStr, enNum, enIsString)

			_, toNodePos, _, err := edgeCols.DecodeField(edgeToOffset, erec[edgeToOffset], raw.Strings)
			if err != nil {
				return nil, err
			}
			if int(toNodePos)+idOffset < 0 || int(toNodePos)+idOffset >= len(raw.Nodes) {
				return nil, errParse(fmt.Sprintf(
					"edge to_node position %d out of range of the nodes array", toNodePos), nil)
			}
			toID := uint64(raw.Nodes[int(toNodePos)+idOffset])

			g.EdgeRows = append(g.EdgeRows, EdgeRow{
				From:        id,
				To:          toID,
				Type:        edgeType,
				NameOrIndex: edgeName,
			})

			ectx := filter.EdgeContext{
				OwnerNodeID: id,
				OwnerName:   name,
				OwnerType:   nodeType,
				EdgeType:    edgeType,
				EdgeName:    edgeName,
				ToNodeID:    toID,
			}
			if ef.IsEssential(ectx) {
				*succBuf = append(*succBuf, toID)
			}
		}

		nr.Successors = append(make([]uint64, 0, len(*succBuf)), *succBuf...)
		collections.PutUint64Slice(succBuf)

		g.Nodes[id] = nr
		g.IDIndex[id] = len(g.Order)
		g.Order = append(g.Order, id)
	}

	if edgeCursor != len(raw.Edges) {
		return nil, errParse(fmt.Sprintf(
			"edges array has %d trailing values unclaimed by any node", len(raw.Edges)-edgeCursor), nil)
	}

	if err := decodeLocations(g, raw); err != nil {
		return nil, err
	}

	return g, nil
}

func decodeLocations(g *Graph, raw *RawSnapshot) error {
	if len(raw.Locations)%locationFieldCount != 0 {
		return errParse(fmt.Sprintf(
			"locations array length %d is not a multiple of %d", len(raw.Locations), locationFieldCount), nil)
	}

	g.Locations = make([]LocationQuad, 0, len(raw.Locations)/locationFieldCount)
	for i := 0; i < len(raw.Locations); i += locationFieldCount {
		g.Locations = append(g.Locations, LocationQuad{
			NodeIndex: raw.Locations[i],
			ScriptID:  raw.Locations[i+1],
			Line:      raw.Locations[i+2],
			Col:       raw.Locations[i+3],
		})
	}
	return nil
}

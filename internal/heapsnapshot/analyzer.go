package heapsnapshot

import (
	"context"
	"fmt"

	"github.com/heapsnap-analysis/pkg/collections"
)

// AnalyzeDistances runs an iterative BFS from rootID over g's essential-edge
// graph, assigning each reached node its shortest distance from the root and
// accumulating an additive retain-size approximation: the root's RetainSize
// is its own SelfSize, and every other node's RetainSize is its discovering
// parent's already-finalized RetainSize plus its own SelfSize, so RetainSize
// grows with depth along the first-discovery path.
//
// Distance 0 is both "this is the root" and the zero value every NodeRecord
// starts with, so a node being at distance 0 cannot be used to tell whether
// it has been visited. A separate visited bitset is kept instead, and the
// root is marked visited before the loop starts.
func AnalyzeDistances(ctx context.Context, g *Graph, rootID uint64) error {
	root, ok := g.Nodes[rootID]
	if !ok {
		return errDecode(fmt.Sprintf("root node %d not present in graph", rootID), nil)
	}

	visited := collections.NewBitset(len(g.Order))
	rootPos, ok := g.IDIndex[rootID]
	if !ok {
		return errDecode(fmt.Sprintf("root node %d missing from id index", rootID), nil)
	}

	root.Distance = 0
	root.RetainSize = root.SelfSize
	visited.Set(rootPos)

	frontier := collections.NewQueue[uint64](len(g.Order))
	frontier.Enqueue(rootID)

	steps := 0
	for !frontier.IsEmpty() {
		steps++
		if steps%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return errIO("distance analysis canceled", err)
			}
		}

		id, ok := frontier.Dequeue()
		if !ok {
			break
		}
		cur := g.Nodes[id]
		r := cur.RetainSize

		for _, succID := range cur.Successors {
			succPos, ok := g.IDIndex[succID]
			if !ok {
				// Edge points at a node id absent from this snapshot's node
				// table; skip rather than fail the whole walk.
				continue
			}
			if visited.Test(succPos) {
				continue
			}
			visited.Set(succPos)

			succ := g.Nodes[succID]
			succ.Distance = cur.Distance + 1
			succ.RetainSize = r + succ.SelfSize

			frontier.Enqueue(succID)
		}
	}

	return nil
}

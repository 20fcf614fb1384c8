package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/heapsnap-analysis/internal/heapsnapshot"
	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// persistBatchSize bounds how many rows go into a single GORM CreateInBatches
// call, trading a little round-trip overhead for bounded memory per insert.
const persistBatchSize = 500

// Persister writes a decoded, analyzed Graph into the node/edge/location
// tables using the two-phase sequence required by the ordering guarantees:
// edges first (they do not depend on the BFS result), node and location
// rows after the walk completes.
type Persister struct {
	db *gorm.DB
}

// NewPersister wraps db for use as the output store's writer.
func NewPersister(db *gorm.DB) *Persister {
	return &Persister{db: db}
}

// PersistEdges commits every decoded edge row inside one transaction,
// unconditionally — regardless of whether the essential-edge filter
// honored the edge for traversal.
func (p *Persister) PersistEdges(ctx context.Context, rows []heapsnapshot.EdgeRow) error {
	if len(rows) == 0 {
		return nil
	}

	edges := make([]Edge, len(rows))
	for i, r := range rows {
		edges[i] = Edge{From: r.From, To: r.To, Type: r.Type, NameOrIndex: r.NameOrIndex}
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(edges, persistBatchSize).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodePersistError, "failed to persist edge rows", err)
	}
	return nil
}

// PersistNodesAndLocations commits the node table (with final distance and
// retain_size values) and the location table (with node_index already
// resolved to node ids by the caller) inside a single transaction, run only
// after the BFS walk has finished.
func (p *Persister) PersistNodesAndLocations(ctx context.Context, g *heapsnapshot.Graph) error {
	nodes := make([]Node, 0, len(g.Order))
	for _, id := range g.Order {
		nr := g.Nodes[id]
		nodes = append(nodes, Node{
			ID:            nr.ID,
			Name:          nr.Name,
			Type:          nr.Type,
			SelfSize:      nr.SelfSize,
			ChildrenCount: nr.EdgeCount,
			Distance:      nr.Distance,
			RetainSize:    nr.RetainSize,
		})
	}

	locations := make([]Location, 0, len(g.Locations))
	for _, loc := range g.Locations {
		locations = append(locations, Location{
			NodeID:   g.ResolveLocationNodeID(loc.NodeIndex),
			ScriptID: loc.ScriptID,
			Line:     loc.Line,
			Col:      loc.Col,
		})
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(nodes) > 0 {
			if err := tx.CreateInBatches(nodes, persistBatchSize).Error; err != nil {
				return err
			}
		}
		if len(locations) > 0 {
			if err := tx.CreateInBatches(locations, persistBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodePersistError, "failed to persist node/location rows", err)
	}
	return nil
}

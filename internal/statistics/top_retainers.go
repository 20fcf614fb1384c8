// Package statistics provides utilities for ranking nodes in a persisted
// heap snapshot.
package statistics

import (
	"context"

	"gorm.io/gorm"

	"github.com/heapsnap-analysis/internal/repository"
	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// TopRetainersCalculator ranks persisted nodes by retain_size. It queries
// the output store directly rather than an in-memory sample.
type TopRetainersCalculator struct {
	topN int
}

// TopRetainersOption configures a TopRetainersCalculator.
type TopRetainersOption func(*TopRetainersCalculator)

// WithTopN sets how many top retainers to return.
func WithTopN(n int) TopRetainersOption {
	return func(c *TopRetainersCalculator) {
		c.topN = n
	}
}

// NewTopRetainersCalculator creates a TopRetainersCalculator.
func NewTopRetainersCalculator(opts ...TopRetainersOption) *TopRetainersCalculator {
	c := &TopRetainersCalculator{topN: 15}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopRetainerEntry is one ranked node.
type TopRetainerEntry struct {
	ID         uint64
	Name       string
	Type       string
	RetainSize int64
	SelfSize   int64
	Distance   uint64
}

// Calculate queries db for the topN nodes by retain_size, descending.
func (c *TopRetainersCalculator) Calculate(ctx context.Context, db *gorm.DB) ([]TopRetainerEntry, error) {
	var nodes []repository.Node
	err := db.WithContext(ctx).
		Order("retain_size DESC").
		Limit(c.topN).
		Find(&nodes).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "failed to query top retainers", err)
	}

	entries := make([]TopRetainerEntry, len(nodes))
	for i, n := range nodes {
		entries[i] = TopRetainerEntry{
			ID:         n.ID,
			Name:       n.Name,
			Type:       n.Type,
			RetainSize: n.RetainSize,
			SelfSize:   n.SelfSize,
			Distance:   n.Distance,
		}
	}
	return entries, nil
}

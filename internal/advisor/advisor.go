// Package advisor generates informational suggestions from a persisted heap
// snapshot's statistics. Suggestions never affect ingestion or exit code.
package advisor

import (
	"fmt"

	"github.com/heapsnap-analysis/internal/statistics"
)

// Suggestion is one informational finding.
type Suggestion struct {
	Name        string
	Severity    string
	Description string
}

// Rule is a named check evaluated against a RuleContext.
type Rule struct {
	Name        string
	Description string
	Check       RuleCheckFunc
}

// RuleCheckFunc inspects ctx and returns zero or more suggestions.
type RuleCheckFunc func(ctx *RuleContext) []Suggestion

// RuleContext carries the aggregate statistics a rule needs. The ingestion
// pipeline builds it after persistence: TopRetainers comes from the
// persisted node table, the remaining aggregates from the analyzed
// in-memory graph.
type RuleContext struct {
	TopRetainers        []statistics.TopRetainerEntry
	TotalRetainedSize   int64
	TotalNodeCount      int
	UnreachableCount    int
	WeakEdgeCountByNode map[uint64]int64
	NodeNameByID        map[uint64]string
	DeepestDistance     uint64
}

// LargeRetainerFraction is the default fraction of TotalRetainedSize a
// single node's retain_size must exceed to be flagged.
const LargeRetainerFraction = 0.25

// WeakEdgeFanoutThreshold is the default number of outgoing weak edges a
// node must own to be flagged.
const WeakEdgeFanoutThreshold = 50

// UnreachableMassFraction is the default fraction of all persisted nodes
// that must be unreachable-from-root to be flagged.
const UnreachableMassFraction = 0.5

// Advisor evaluates a configured set of rules against a RuleContext.
type Advisor struct {
	rules []Rule
}

// NewAdvisor creates an Advisor with the default rule set.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates an Advisor with a custom rule set.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise runs every configured rule against ctx and returns all suggestions.
func (a *Advisor) Advise(ctx *RuleContext) []Suggestion {
	suggestions := make([]Suggestion, 0)
	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}
	return suggestions
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:        "large_retainer",
			Description: "flags a node whose retain_size exceeds a large fraction of total retained size",
			Check:       checkLargeRetainer,
		},
		{
			Name:        "weak_edge_fanout",
			Description: "flags nodes owning an unusually large number of weak outgoing edges",
			Check:       checkWeakEdgeFanout,
		},
		{
			Name:        "unreachable_mass",
			Description: "flags when a large fraction of persisted nodes are unreachable from root",
			Check:       checkUnreachableMass,
		},
	}
}

func checkLargeRetainer(ctx *RuleContext) []Suggestion {
	if ctx.TotalRetainedSize <= 0 {
		return nil
	}

	var out []Suggestion
	for _, r := range ctx.TopRetainers {
		frac := float64(r.RetainSize) / float64(ctx.TotalRetainedSize)
		if frac > LargeRetainerFraction {
			out = append(out, Suggestion{
				Name:     "large_retainer",
				Severity: "warning",
				Description: fmt.Sprintf(
					"node %d (%s, %s) retains %.1f%% of total retained size (%d bytes)",
					r.ID, r.Name, r.Type, frac*100, r.RetainSize),
			})
		}
	}
	return out
}

func checkWeakEdgeFanout(ctx *RuleContext) []Suggestion {
	var out []Suggestion
	for id, count := range ctx.WeakEdgeCountByNode {
		if count > WeakEdgeFanoutThreshold {
			name := ctx.NodeNameByID[id]
			out = append(out, Suggestion{
				Name:     "weak_edge_fanout",
				Severity: "info",
				Description: fmt.Sprintf(
					"node %d (%s) owns %d weak outgoing edges, a common sign of listener or cache leaks",
					id, name, count),
			})
		}
	}
	return out
}

func checkUnreachableMass(ctx *RuleContext) []Suggestion {
	if ctx.TotalNodeCount == 0 {
		return nil
	}

	frac := float64(ctx.UnreachableCount) / float64(ctx.TotalNodeCount)
	if frac > UnreachableMassFraction {
		return []Suggestion{{
			Name:     "unreachable_mass",
			Severity: "warning",
			Description: fmt.Sprintf(
				"%.1f%% of persisted nodes (%d of %d) are unreachable from root",
				frac*100, ctx.UnreachableCount, ctx.TotalNodeCount),
		}}
	}
	return nil
}

// Package filter provides the pluggable edge-traversal filter the graph
// builder uses to decide which edges the BFS analyzer may walk.
package filter

// EdgeContext carries the fields a filtering rule needs to decide whether an
// edge should be honored for traversal. It mirrors the decoded edge plus the
// name/type of the node that owns it, since the essential-edge test depends
// on both.
type EdgeContext struct {
	OwnerNodeID uint64
	OwnerName   string
	OwnerType   string
	EdgeType    string
	EdgeName    string
	ToNodeID    uint64
}

// Rule is one named predicate contributing to the overall filter decision.
// All rules must agree (logical AND) for an edge to be honored.
type Rule struct {
	Name        string
	Description string
	Check       func(ctx EdgeContext) bool
}

// EdgeFilter decides, per edge, whether it is "essential" — honored by the
// BFS distance/retain-size traversal. Every edge is always persisted to the
// edge table regardless of this decision; the filter only gates traversal.
type EdgeFilter struct {
	rules []Rule
}

// FilterOption configures an EdgeFilter at construction time.
type FilterOption func(*EdgeFilter)

// WithRule appends a custom rule to the filter.
func WithRule(r Rule) FilterOption {
	return func(f *EdgeFilter) {
		f.rules = append(f.rules, r)
	}
}

// WithHiddenSloppyFunctionMapRule enables a rule excluding "hidden" edges
// named "sloppy_function_map" from traversal. It mirrors a rule commented
// out, never enabled, in the original tool this filter replaces; left here
// as a disabled, explicitly-named opt-in rather than guessed-at default
// behavior, since nothing establishes it was ever meant to run.
func WithHiddenSloppyFunctionMapRule() FilterOption {
	return WithRule(Rule{
		Name:        "hidden_sloppy_function_map",
		Description: `excludes "hidden" edges named "sloppy_function_map" from traversal`,
		Check: func(ctx EdgeContext) bool {
			return !(ctx.EdgeType == "hidden" && ctx.EdgeName == "sloppy_function_map")
		},
	})
}

// NewEdgeFilter builds the essential-edge filter: weak edges are always
// excluded from traversal; shortcut edges are excluded unless their owner
// is the synthetic root (id 1). Both rules are unconditional and cannot be
// disabled — they define what "essential edge" means. Additional rules may
// be layered on top via options; by default none are, since the dormant
// filter hook this mirrors runs as an unconditional true.
func NewEdgeFilter(opts ...FilterOption) *EdgeFilter {
	f := &EdgeFilter{
		rules: []Rule{
			{
				Name:        "no_weak",
				Description: "weak edges are never traversed",
				Check: func(ctx EdgeContext) bool {
					return ctx.EdgeType != "weak"
				},
			},
			{
				Name:        "shortcut_root_only",
				Description: "shortcut edges are only traversed when owned by the root (id 1)",
				Check: func(ctx EdgeContext) bool {
					return ctx.EdgeType != "shortcut" || ctx.OwnerNodeID == 1
				},
			},
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// IsEssential reports whether ctx passes every configured rule.
func (f *EdgeFilter) IsEssential(ctx EdgeContext) bool {
	for _, r := range f.rules {
		if !r.Check(ctx) {
			return false
		}
	}
	return true
}

// Rules returns the filter's configured rules, in evaluation order.
func (f *EdgeFilter) Rules() []Rule {
	return f.rules
}

// DefaultFilter is the filter used when no custom rules are configured: the
// two unconditional essential-edge rules and nothing else.
var DefaultFilter = NewEdgeFilter()

// IsEssential classifies an edge using DefaultFilter.
func IsEssential(ctx EdgeContext) bool {
	return DefaultFilter.IsEssential(ctx)
}

package slicer

// DefaultMaxExclusionItems caps the exclusion index a CombinedIndex may subtract.
const DefaultMaxExclusionItems = 10_000

// Limits bounds index construction.
type Limits struct {
	MaxItems          int
	MaxExclusionItems int
}

func (l Limits) withDefaults() Limits {
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxIndexItems
	}
	if l.MaxExclusionItems <= 0 {
		l.MaxExclusionItems = DefaultMaxExclusionItems
	}
	return l
}

// CombinedIndex is an inclusion index minus an exclusion index, in inclusion order.
type CombinedIndex struct {
	Offsets []int
	Valid   bool
	// StopRec is the largest offset in Offsets, -1 when empty.
	StopRec int
	// ColDefaultRange is carried from the inclusion index; Offsets may run past the real width.
	ColDefaultRange bool
}

// IndexOptimizer combines the inclusion and exclusion processors of one axis.
type IndexOptimizer struct {
	incl, excl *SpecProcessor
	rows       bool
	limits     Limits
	combined   CombinedIndex
	pruned     bool
}

// NewRowIndexOptimizer combines the record processors.
func NewRowIndexOptimizer(incl, excl *SpecProcessor, limits Limits) *IndexOptimizer {
	return newIndexOptimizer(incl, excl, true, limits)
}

// NewColIndexOptimizer combines the column processors.
func NewColIndexOptimizer(incl, excl *SpecProcessor, limits Limits) *IndexOptimizer {
	return newIndexOptimizer(incl, excl, false, limits)
}

func newIndexOptimizer(incl, excl *SpecProcessor, rows bool, limits Limits) *IndexOptimizer {
	o := &IndexOptimizer{incl: incl, excl: excl, rows: rows, limits: limits.withDefaults()}
	o.combined = o.build()
	return o
}

func (o *IndexOptimizer) build() CombinedIndex {
	invalid := CombinedIndex{StopRec: -1}
	inIx, exIx := o.incl.Indexer(), o.excl.Indexer()
	if !inIx.Valid() || !exIx.Valid() || len(exIx.Index()) > o.limits.MaxExclusionItems {
		return invalid
	}

	excluded := make(map[int]struct{}, len(exIx.Index()))
	for _, off := range exIx.Index() {
		excluded[off] = struct{}{}
	}
	offsets := make([]int, 0, len(inIx.Index()))
	stopRec := -1
	for _, off := range inIx.Index() {
		if _, skip := excluded[off]; skip {
			continue
		}
		if len(offsets) >= o.limits.MaxItems {
			return invalid
		}
		offsets = append(offsets, off)
		stopRec = max(stopRec, off)
	}
	return CombinedIndex{
		Offsets:         offsets,
		Valid:           true,
		StopRec:         stopRec,
		ColDefaultRange: inIx.ColDefaultRange(),
	}
}

// LimitError describes the ceiling that kept the combined index from being built.
func (o *IndexOptimizer) LimitError(axis string) *IndexLimitError {
	if exIx := o.excl.Indexer(); exIx.Valid() && len(exIx.Index()) > o.limits.MaxExclusionItems {
		return &IndexLimitError{Axis: axis, Exclusion: true, Limit: o.limits.MaxExclusionItems}
	}
	return &IndexLimitError{Axis: axis, Limit: o.limits.MaxItems}
}

// Combined returns the current combined index.
func (o *IndexOptimizer) Combined() CombinedIndex { return o.combined }

// Include returns the inclusion processor.
func (o *IndexOptimizer) Include() *SpecProcessor { return o.incl }

// Exclude returns the exclusion processor.
func (o *IndexOptimizer) Exclude() *SpecProcessor { return o.excl }

// OptimizedForAll reports whether every offset is selected and none excluded.
func (o *IndexOptimizer) OptimizedForAll() bool {
	return o.incl.HasAllInclusions() && !o.excl.HasExclusions()
}

// NeedsReordering reports whether the inclusion index repeats, reverses or reorders offsets.
func (o *IndexOptimizer) NeedsReordering() bool {
	return o.incl.Indexer().NeedsReordering()
}

// Accept evaluates offset with the predicates: included and not excluded.
func (o *IndexOptimizer) Accept(offset int) bool {
	return o.incl.Evaluate(offset) && !(o.excl.HasExclusions() && o.excl.Evaluate(offset))
}

// PruneIndex drops offsets at or beyond actualCount once the real width is known. It only
// acts on a column index whose stop was synthesized, and only once.
func (o *IndexOptimizer) PruneIndex(actualCount int) {
	if o.rows || o.pruned || !o.combined.Valid || !o.combined.ColDefaultRange {
		return
	}
	o.pruned = true
	kept := o.combined.Offsets[:0]
	stopRec := -1
	for _, off := range o.combined.Offsets {
		if off < actualCount {
			kept = append(kept, off)
			stopRec = max(stopRec, off)
		}
	}
	o.combined.Offsets = kept
	o.combined.StopRec = stopRec
	o.combined.ColDefaultRange = false
}

package slicer

import "math"

// SpecProcessor answers membership questions for one spec list and owns its Indexer.
type SpecProcessor struct {
	specs   *Specifications
	indexer *Indexer
	rng     RandSource
	all     bool
}

// NewSpecProcessor compiles the index for specs. maxItems and rng are handed to the Indexer.
func NewSpecProcessor(specs *Specifications, maxItems int, rng RandSource) *SpecProcessor {
	if rng == nil {
		rng = NewRandSource(0)
	}
	return &SpecProcessor{
		specs:   specs,
		indexer: NewIndexer(specs, maxItems, rng),
		rng:     rng,
		all:     specs.HasAllInclusions(),
	}
}

// Specs returns the compiled spec list.
func (p *SpecProcessor) Specs() *Specifications { return p.specs }

// Indexer returns the materialized index for the spec list.
func (p *SpecProcessor) Indexer() *Indexer { return p.indexer }

// HasAllInclusions reports the universal fast path.
func (p *SpecProcessor) HasAllInclusions() bool { return p.all }

// HasExclusions reports whether the list removes anything.
func (p *SpecProcessor) HasExclusions() bool { return p.specs.HasExclusions() }

// Evaluate reports whether offset satisfies any record of the list. Fractional steps
// draw one sample per matching record.
func (p *SpecProcessor) Evaluate(offset int) bool {
	if p.all {
		return true
	}
	for _, rec := range p.specs.Records() {
		if !rec.Contains(offset) {
			continue
		}
		if rec.IsFractional() && math.Abs(rec.Step) <= p.rng.Float64() {
			continue
		}
		return true
	}
	return false
}

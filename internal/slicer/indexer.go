package slicer

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultMaxIndexItems bounds every materialized index.
const DefaultMaxIndexItems = 20_000_000

// RandSource draws uniform numbers in [0, 1) for fractional steps.
type RandSource interface {
	Float64() float64
}

// NewRandSource returns a PCG backed source. A zero seed seeds from the clock.
func NewRandSource(seed uint64) RandSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Indexer expands a Specifications list into the explicit ordered offsets it selects.
type Indexer struct {
	specs    *Specifications
	maxItems int
	rng      RandSource

	index           []int
	valid           bool
	includesReverse bool
	includesRepeats bool
	outOfOrder      bool
	colDefaultRange bool
}

// NewIndexer builds the index immediately. maxItems <= 0 uses DefaultMaxIndexItems.
func NewIndexer(specs *Specifications, maxItems int, rng RandSource) *Indexer {
	if maxItems <= 0 {
		maxItems = DefaultMaxIndexItems
	}
	if rng == nil {
		rng = NewRandSource(0)
	}
	ix := &Indexer{specs: specs, maxItems: maxItems, rng: rng}
	ix.build()
	return ix
}

func (ix *Indexer) build() {
	var (
		index    []int
		count    int
		priorMax = -1
		noop     bool
	)
	for _, rec := range ix.specs.Records() {
		if rec.RecDefaultRange {
			ix.valid = false
			ix.index = []int{}
			return
		}
		if rec.ColDefaultRange {
			ix.colDefaultRange = true
		}
		if rec.Step < 0 {
			ix.includesReverse = true
		}
		step := rec.rangeStep()
		fractional := rec.IsFractional()
		prob := math.Abs(rec.Step)
		for i := rec.Start; (step > 0 && i < rec.Stop) || (step < 0 && i > rec.Stop); i += step {
			if fractional && prob <= ix.rng.Float64() {
				continue
			}
			switch {
			case i < priorMax:
				ix.outOfOrder = true
			case i == priorMax:
				ix.includesRepeats = true
			default:
				priorMax = i
			}
			count++
			if count > ix.maxItems {
				noop = true
			}
			if !noop {
				index = append(index, i)
			}
		}
	}
	if noop {
		ix.valid = false
		ix.index = []int{}
		return
	}
	if index == nil {
		index = []int{}
	}
	ix.valid = true
	ix.index = index
}

// Index returns the offsets in spec order, repeats and reversals included. Empty when invalid.
func (ix *Indexer) Index() []int { return ix.index }

// Valid reports whether the index was fully materialized.
func (ix *Indexer) Valid() bool { return ix.valid }

// IncludesReverse reports whether any record walks backwards.
func (ix *Indexer) IncludesReverse() bool { return ix.includesReverse }

// IncludesRepeats reports whether an offset equal to the running maximum appeared again.
func (ix *Indexer) IncludesRepeats() bool { return ix.includesRepeats }

// IncludesOutOfOrder reports whether an offset below the running maximum appeared.
func (ix *Indexer) IncludesOutOfOrder() bool { return ix.outOfOrder }

// NeedsReordering reports whether the index cannot be served by one forward pass.
func (ix *Indexer) NeedsReordering() bool {
	return ix.includesReverse || ix.includesRepeats || ix.outOfOrder
}

// ColDefaultRange reports whether a column record carried a synthesized stop.
func (ix *Indexer) ColDefaultRange() bool { return ix.colDefaultRange }

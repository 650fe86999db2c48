package slicer

const colCacheSize = 1024

const (
	colUnknown int8 = iota
	colKeep
	colDrop
)

// colCache memoizes the predicate decision per column offset. Column decisions do not
// depend on the record, so a fractional column step samples each column once per run.
type colCache struct {
	opt       *IndexOptimizer
	decisions [colCacheSize]int8
	overflow  map[int]bool
}

func newColCache(opt *IndexOptimizer) *colCache {
	return &colCache{opt: opt}
}

func (c *colCache) accept(offset int) bool {
	if offset < colCacheSize {
		switch c.decisions[offset] {
		case colKeep:
			return true
		case colDrop:
			return false
		}
		keep := c.opt.Accept(offset)
		c.decisions[offset] = colDrop
		if keep {
			c.decisions[offset] = colKeep
		}
		return keep
	}
	if keep, ok := c.overflow[offset]; ok {
		return keep
	}
	if c.overflow == nil {
		c.overflow = make(map[int]bool)
	}
	keep := c.opt.Accept(offset)
	c.overflow[offset] = keep
	return keep
}

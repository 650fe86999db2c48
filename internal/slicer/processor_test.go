package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecProcessor_EvaluateMatchesIndex(t *testing.T) {
	t.Parallel()

	const count = 40
	lists := [][]string{
		{"1:3"},
		{"::3"},
		{"5:30:4", "0"},
		{"-5:"},
		{"35::-2"},
		{"::"},
	}
	for _, items := range lists {
		p := NewSpecProcessor(mustSpecs(t, IncludeRows, items, count), 0, nil)
		selected := make(map[int]bool)
		for _, off := range p.Indexer().Index() {
			selected[off] = true
		}
		for off := 0; off < count; off++ {
			assert.Equal(t, selected[off], p.Evaluate(off), "items %q offset %d", items, off)
		}
	}
}

func TestSpecProcessor_FastPaths(t *testing.T) {
	t.Parallel()

	all := NewSpecProcessor(mustSpecs(t, IncludeCols, nil, UnknownCount), 0, nil)
	assert.True(t, all.HasAllInclusions())
	assert.True(t, all.Evaluate(1_000_000))

	none := NewSpecProcessor(mustSpecs(t, ExcludeCols, nil, UnknownCount), 0, nil)
	assert.False(t, none.HasExclusions())
	assert.False(t, none.Evaluate(0))
}

func TestSpecProcessor_FractionalDraws(t *testing.T) {
	t.Parallel()

	rng := &seqRand{vals: []float64{0.05, 0.5}}
	p := NewSpecProcessor(mustSpecs(t, IncludeRows, []string{"::0.1"}, UnknownCount), 0, rng)
	assert.True(t, p.Evaluate(0))
	assert.False(t, p.Evaluate(1))
	assert.False(t, p.Evaluate(-1), "offset outside every record draws nothing")
}

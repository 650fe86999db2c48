package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRowOpt(t *testing.T, incl, excl []string, count int, limits Limits) *IndexOptimizer {
	t.Helper()
	return NewRowIndexOptimizer(
		NewSpecProcessor(mustSpecs(t, IncludeRows, incl, count), limits.MaxItems, nil),
		NewSpecProcessor(mustSpecs(t, ExcludeRows, excl, count), limits.MaxItems, nil),
		limits)
}

func TestIndexOptimizer_Combined(t *testing.T) {
	t.Parallel()

	opt := newRowOpt(t, []string{"0:10"}, []string{"3", "5:8"}, UnknownCount, Limits{})
	ix := opt.Combined()
	require.True(t, ix.Valid)
	assert.Equal(t, []int{0, 1, 2, 4, 8, 9}, ix.Offsets)
	assert.Equal(t, 9, ix.StopRec)
	assert.False(t, opt.OptimizedForAll())

	assert.True(t, opt.Accept(4))
	assert.False(t, opt.Accept(6))
	assert.False(t, opt.Accept(10))
}

func TestIndexOptimizer_KeepsInclusionOrder(t *testing.T) {
	t.Parallel()

	opt := newRowOpt(t, []string{"4", "0", "4"}, []string{"2"}, UnknownCount, Limits{})
	ix := opt.Combined()
	require.True(t, ix.Valid)
	assert.Equal(t, []int{4, 0, 4}, ix.Offsets)
	assert.Equal(t, 4, ix.StopRec)
	assert.True(t, opt.NeedsReordering())
}

func TestIndexOptimizer_Invalid(t *testing.T) {
	t.Parallel()

	t.Run("exclusion ceiling", func(t *testing.T) {
		opt := newRowOpt(t, []string{"0:10"}, []string{"0:5"}, UnknownCount, Limits{MaxExclusionItems: 4})
		assert.False(t, opt.Combined().Valid)
		assert.Equal(t, -1, opt.Combined().StopRec)
		assert.True(t, opt.Accept(7))
		assert.False(t, opt.Accept(2))
		lerr := opt.LimitError("record")
		assert.True(t, lerr.Exclusion)
		assert.Equal(t, 4, lerr.Limit)
	})
	t.Run("default record range", func(t *testing.T) {
		opt := newRowOpt(t, []string{"::2"}, nil, UnknownCount, Limits{})
		assert.False(t, opt.Combined().Valid)
	})
	t.Run("combined too large", func(t *testing.T) {
		opt := newRowOpt(t, []string{"0:8"}, []string{"0"}, UnknownCount, Limits{MaxItems: 8})
		assert.True(t, opt.Combined().Valid)
		big := newRowOpt(t, []string{"0:9"}, nil, UnknownCount, Limits{MaxItems: 8})
		assert.False(t, big.Combined().Valid)
		lerr := big.LimitError("record")
		assert.False(t, lerr.Exclusion)
		assert.Equal(t, 8, lerr.Limit)
	})
}

func TestIndexOptimizer_OptimizedForAll(t *testing.T) {
	t.Parallel()

	assert.True(t, newRowOpt(t, nil, nil, UnknownCount, Limits{}).OptimizedForAll())
	assert.False(t, newRowOpt(t, nil, []string{"1"}, UnknownCount, Limits{}).OptimizedForAll())
}

func TestIndexOptimizer_PruneIndex(t *testing.T) {
	t.Parallel()

	opt := NewColIndexOptimizer(
		NewSpecProcessor(mustSpecs(t, IncludeCols, []string{"::2"}, UnknownCount), 0, nil),
		NewSpecProcessor(mustSpecs(t, ExcludeCols, nil, UnknownCount), 0, nil),
		Limits{})
	require.True(t, opt.Combined().ColDefaultRange)
	assert.Len(t, opt.Combined().Offsets, DefaultColStop/2)

	opt.PruneIndex(5)
	ix := opt.Combined()
	assert.Equal(t, []int{0, 2, 4}, ix.Offsets)
	assert.Equal(t, 4, ix.StopRec)
	assert.False(t, ix.ColDefaultRange)

	// Only the first width counts.
	opt.PruneIndex(1)
	assert.Equal(t, []int{0, 2, 4}, opt.Combined().Offsets)

	rows := newRowOpt(t, []string{"0:5"}, nil, UnknownCount, Limits{})
	rows.PruneIndex(2)
	assert.Len(t, rows.Combined().Offsets, 5)
}

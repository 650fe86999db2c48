package slicer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(recordOverhead), RecordSize(nil))
	assert.Equal(t, int64(recordOverhead+2*fieldOverhead+5), RecordSize([]string{"ab", "cde"}))
}

func TestMemoryLimiter(t *testing.T) {
	t.Parallel()

	rec := []string{"abcd"}
	size := RecordSize(rec)
	m := NewMemoryLimiter(2 * size)
	require.NoError(t, m.Check(rec, 0))
	require.NoError(t, m.Check(rec, 1))

	err := m.Check(rec, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryExceeded)

	var merr *MemoryExceededError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 2, merr.RecNum)
	assert.Equal(t, 3*size, merr.Used)
	assert.Equal(t, 2*size, m.Limit())
	assert.Contains(t, err.Error(), "--max-mem-gbytes")
	assert.Equal(t, ClassData, Classify(err))
}

func TestMemoryLimiter_Unbounded(t *testing.T) {
	t.Parallel()

	m := NewMemoryLimiter(0)
	for i := range 100 {
		require.NoError(t, m.Check([]string{"x"}, i))
	}
	assert.Equal(t, 100*RecordSize([]string{"x"}), m.Used())
}

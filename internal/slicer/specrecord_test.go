package slicer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpecRecord_Invariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start      int
		stop       int
		step       float64
		kind       Kind
		colDefault bool
		recDefault bool
		wantErr    bool
	}{
		{name: "forward", start: 0, stop: 5, step: 1, kind: IncludeRows},
		{name: "reverse to zero", start: 4, stop: -1, step: -1, kind: IncludeRows},
		{name: "fraction", start: 0, stop: 10, step: 0.25, kind: IncludeCols},
		{name: "integer stride", start: 0, stop: 10, step: 3, kind: IncludeRows},
		{name: "empty forward allowed", start: 3, stop: 3, step: 1, kind: IncludeRows},
		{name: "negative start", start: -1, stop: 3, step: 1, kind: IncludeRows, wantErr: true},
		{name: "stop below -1", start: 0, stop: -2, step: -1, kind: IncludeRows, wantErr: true},
		{name: "zero step", start: 0, stop: 3, step: 0, kind: IncludeRows, wantErr: true},
		{name: "nan step", start: 0, stop: 3, step: math.NaN(), kind: IncludeRows, wantErr: true},
		{name: "forward inverted", start: 5, stop: 2, step: 1, kind: IncludeRows, wantErr: true},
		{name: "reverse inverted", start: 2, stop: 5, step: -1, kind: IncludeRows, wantErr: true},
		{name: "exclusion stride", start: 0, stop: 5, step: 2, kind: ExcludeRows, wantErr: true},
		{name: "exclusion unit", start: 0, stop: 5, step: 1, kind: ExcludeCols},
		{name: "col default on rows", start: 0, stop: 5, step: 1, kind: IncludeRows, colDefault: true, wantErr: true},
		{name: "rec default on cols", start: 0, stop: 5, step: 1, kind: IncludeCols, recDefault: true, wantErr: true},
		{name: "non integer stride", start: 0, stop: 5, step: 1.5, kind: IncludeRows, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := NewSpecRecord(tt.start, tt.stop, tt.step, tt.kind, tt.colDefault, tt.recDefault)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpecRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, rec.Start)
			assert.Equal(t, tt.stop, rec.Stop)
		})
	}
}

func TestSpecRecord_Contains(t *testing.T) {
	t.Parallel()

	fwd := SpecRecord{Start: 1, Stop: 7, Step: 2, Kind: IncludeRows}
	assert.True(t, fwd.Contains(1))
	assert.True(t, fwd.Contains(5))
	assert.False(t, fwd.Contains(2))
	assert.False(t, fwd.Contains(7))
	assert.False(t, fwd.Contains(0))

	rev := SpecRecord{Start: 4, Stop: -1, Step: -2, Kind: IncludeRows}
	assert.True(t, rev.Contains(4))
	assert.True(t, rev.Contains(0))
	assert.False(t, rev.Contains(3))
	assert.False(t, rev.Contains(5))

	frac := SpecRecord{Start: 0, Stop: 3, Step: 0.5, Kind: IncludeRows}
	assert.True(t, frac.IsFractional())
	assert.True(t, frac.Contains(2))
	assert.False(t, frac.Contains(3))
}

func TestKind(t *testing.T) {
	t.Parallel()

	assert.True(t, IncludeRows.IsRow())
	assert.True(t, ExcludeRows.IsRow())
	assert.False(t, IncludeCols.IsRow())
	assert.True(t, ExcludeCols.IsExclusion())
	assert.False(t, IncludeCols.IsExclusion())
	assert.Equal(t, "exclude-column", ExcludeCols.String())
}

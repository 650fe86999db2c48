package slicer

import (
	"fmt"
	"math"
)

// Kind says which axis a spec applies to and whether it includes or excludes.
type Kind int

const (
	IncludeRows Kind = iota
	ExcludeRows
	IncludeCols
	ExcludeCols
)

func (k Kind) String() string {
	switch k {
	case IncludeRows:
		return "record"
	case ExcludeRows:
		return "exclude-record"
	case IncludeCols:
		return "column"
	case ExcludeCols:
		return "exclude-column"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsRow reports whether k applies to records.
func (k Kind) IsRow() bool { return k == IncludeRows || k == ExcludeRows }

// IsExclusion reports whether k removes offsets.
func (k Kind) IsExclusion() bool { return k == ExcludeRows || k == ExcludeCols }

// SpecRecord is one normalized start:stop:step interval. Stop is exclusive in the
// direction of the step; a Stop of -1 lets a reverse range reach offset 0.
type SpecRecord struct {
	Start int
	Stop  int
	Step  float64
	Kind  Kind

	// ColDefaultRange is set when Stop was synthesized because the column count was unknown.
	ColDefaultRange bool
	// RecDefaultRange is set when Stop was synthesized because the record count was unknown.
	RecDefaultRange bool
}

// NewSpecRecord validates the invariants and returns the record.
func NewSpecRecord(start, stop int, step float64, kind Kind, colDefault, recDefault bool) (SpecRecord, error) {
	rec := SpecRecord{
		Start:           start,
		Stop:            stop,
		Step:            step,
		Kind:            kind,
		ColDefaultRange: colDefault,
		RecDefaultRange: recDefault,
	}
	return rec, rec.validate()
}

func (r SpecRecord) validate() error {
	switch {
	case r.Start < 0:
		return fmt.Errorf("%w: start %d is negative", ErrInvalidSpecRecord, r.Start)
	case r.Stop < -1:
		return fmt.Errorf("%w: stop %d is below -1", ErrInvalidSpecRecord, r.Stop)
	case r.Step == 0 || math.IsNaN(r.Step) || math.IsInf(r.Step, 0):
		return fmt.Errorf("%w: step %v", ErrInvalidSpecRecord, r.Step)
	case r.Step > 0 && r.Start > r.Stop:
		return fmt.Errorf("%w: start %d is after stop %d for a forward step", ErrInvalidSpecRecord, r.Start, r.Stop)
	case r.Step < 0 && r.Start < r.Stop:
		return fmt.Errorf("%w: start %d is before stop %d for a reverse step", ErrInvalidSpecRecord, r.Start, r.Stop)
	case r.Kind.IsExclusion() && r.Step != 1:
		return fmt.Errorf("%w: exclusions only support a step of 1", ErrInvalidSpecRecord)
	case r.ColDefaultRange && r.Kind.IsRow():
		return fmt.Errorf("%w: column default range on a record spec", ErrInvalidSpecRecord)
	case r.RecDefaultRange && !r.Kind.IsRow():
		return fmt.Errorf("%w: record default range on a column spec", ErrInvalidSpecRecord)
	}
	abs := math.Abs(r.Step)
	if abs > 1 && abs != math.Trunc(abs) {
		return fmt.Errorf("%w: step %v must be an integer or a fraction below 1", ErrInvalidSpecRecord, r.Step)
	}
	if abs > math.MaxInt32 {
		return fmt.Errorf("%w: step %v is too large", ErrInvalidSpecRecord, r.Step)
	}
	return nil
}

// IsFractional reports whether the step is a per-offset inclusion probability.
func (r SpecRecord) IsFractional() bool {
	return math.Abs(r.Step) < 1
}

// rangeStep is the integer stride used to walk the interval.
func (r SpecRecord) rangeStep() int {
	if r.IsFractional() {
		if r.Step < 0 {
			return -1
		}
		return 1
	}
	return int(r.Step)
}

// Contains reports whether offset lies on the interval's stride, ignoring fractional sampling.
func (r SpecRecord) Contains(offset int) bool {
	step := r.rangeStep()
	if step > 0 {
		return offset >= r.Start && offset < r.Stop && (offset-r.Start)%step == 0
	}
	return offset <= r.Start && offset > r.Stop && (r.Start-offset)%(-step) == 0
}

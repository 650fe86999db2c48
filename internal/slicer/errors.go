package slicer

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/oleg578/csvslice"
)

var (
	// ErrSpecSyntax is returned for malformed slice expressions.
	ErrSpecSyntax = errors.New("slicer: invalid spec syntax")
	// ErrUnknownName is returned when a named offset is missing from the header.
	ErrUnknownName = errors.New("slicer: name not found in header")
	// ErrNameWithoutHeader is returned when a non-numeric offset is used on a file without a header.
	ErrNameWithoutHeader = errors.New("slicer: names require a header")
	// ErrNameInRecordSpec is returned when a record spec holds a name; only columns are named.
	ErrNameInRecordSpec = fmt.Errorf("%w: record specs take offsets, not names", ErrSpecSyntax)
	// ErrOutOfRange marks an item that selects nothing; such items are dropped.
	ErrOutOfRange = errors.New("slicer: offset out of range")
	// ErrNegativeOutOfRange is returned when a negative single offset resolves before the first item.
	ErrNegativeOutOfRange = errors.New("slicer: negative offset resolves before the first item")
	// ErrInvalidSpecRecord is returned when a normalized item breaks a SpecRecord invariant.
	ErrInvalidSpecRecord = errors.New("slicer: invalid spec record")

	// ErrNeedItemCount groups the errors that can be cured by learning the item count.
	ErrNeedItemCount = errors.New("slicer: item count required")
	// ErrNegativeOffsetWithoutItemCount is returned for a negative offset when the item count is unknown.
	ErrNegativeOffsetWithoutItemCount = fmt.Errorf("%w: negative offset", ErrNeedItemCount)
	// ErrNegativeStepWithoutItemCount is returned for a reverse range without start when the item count is unknown.
	ErrNegativeStepWithoutItemCount = fmt.Errorf("%w: negative step without start", ErrNeedItemCount)
	// ErrUnboundedStopWithoutItemCount is returned when an open-ended range shares a spec list with
	// other items and the item count is unknown.
	ErrUnboundedStopWithoutItemCount = fmt.Errorf("%w: unbounded stop", ErrNeedItemCount)

	// ErrIndexTooLarge is returned when a required index exceeds its configured ceiling.
	ErrIndexTooLarge = errors.New("slicer: index exceeds maximum size")
	// ErrMemoryExceeded is returned when in-memory buffering exceeds its byte budget.
	ErrMemoryExceeded = errors.New("slicer: memory budget exceeded")
	// ErrEmptyInput is returned when the input holds no data records.
	ErrEmptyInput = errors.New("slicer: input is empty")
	// ErrInvalidConfig is returned for unusable runner settings.
	ErrInvalidConfig = errors.New("slicer: invalid configuration")
)

// SpecError ties a spec failure to the item that caused it.
type SpecError struct {
	Kind Kind
	Item string
	Err  error
}

func (e *SpecError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s spec %q: %v", e.Kind, e.Item, e.Err)
}

func (e *SpecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MemoryExceededError reports the budget, the bytes held and the record that crossed it.
type MemoryExceededError struct {
	Limit  int64
	Used   int64
	RecNum int
}

func (e *MemoryExceededError) Error() string {
	return fmt.Sprintf("%v: %s buffered at record %d exceeds the %s budget; narrow the record spec or raise --max-mem-gbytes",
		ErrMemoryExceeded, humanize.IBytes(uint64(e.Used)), e.RecNum, humanize.IBytes(uint64(e.Limit)))
}

func (e *MemoryExceededError) Unwrap() error { return ErrMemoryExceeded }

// IndexLimitError reports an ordering request that needs an index larger than allowed.
type IndexLimitError struct {
	Axis string
	// Exclusion is set when the exclusion index tripped its own ceiling.
	Exclusion bool
	Limit     int
}

func (e *IndexLimitError) Error() string {
	index := "index"
	if e.Exclusion {
		index = "exclusion index"
	}
	return fmt.Sprintf("%v: %s spec needs reordering, repeats or reversal but its %s exceeds %s entries; narrow the spec",
		ErrIndexTooLarge, e.Axis, index, humanize.Comma(int64(e.Limit)))
}

func (e *IndexLimitError) Unwrap() error { return ErrIndexTooLarge }

// Class is a coarse error category used to pick a process exit code.
type Class int

const (
	ClassUnknown Class = iota
	ClassUsage
	ClassData
	ClassEmpty
	ClassIO
)

func (c Class) String() string {
	switch c {
	case ClassUsage:
		return "usage"
	case ClassData:
		return "data"
	case ClassEmpty:
		return "empty"
	case ClassIO:
		return "io"
	default:
		return "unknown"
	}
}

// Classify maps err onto a Class using sentinel errors only.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrEmptyInput):
		return ClassEmpty
	case errors.Is(err, ErrSpecSyntax),
		errors.Is(err, ErrUnknownName),
		errors.Is(err, ErrNameWithoutHeader),
		errors.Is(err, ErrNegativeOutOfRange),
		errors.Is(err, ErrInvalidSpecRecord),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, csvslice.ErrInvalidDialect):
		return ClassUsage
	case errors.Is(err, ErrNeedItemCount),
		errors.Is(err, ErrIndexTooLarge),
		errors.Is(err, ErrMemoryExceeded),
		errors.Is(err, csvslice.ErrBareQuote),
		errors.Is(err, csvslice.ErrUnterminatedQuote),
		errors.Is(err, csvslice.ErrorFieldCount),
		errors.Is(err, csvslice.ErrNeedsEscape):
		return ClassData
	case errors.Is(err, syscall.EPIPE):
		return ClassIO
	}
	var perr *csvslice.ParseError
	if errors.As(err, &perr) {
		return ClassData
	}
	return ClassUnknown
}

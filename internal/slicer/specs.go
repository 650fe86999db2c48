package slicer

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// UnknownCount marks an item count that has not been determined yet.
	UnknownCount = -1
	// DefaultColStop is the synthesized column stop used while the column count is unknown.
	DefaultColStop = 5000
	// defaultRecStop is the synthesized record stop used while the record count is unknown.
	defaultRecStop = math.MaxInt
)

// FieldResolver turns a column name into its offset.
type FieldResolver interface {
	FieldPosition(name string) (int, error)
}

// SpecOptions carries the file metadata available when specs are compiled.
type SpecOptions struct {
	// ItemCount is the number of records or columns, or UnknownCount.
	ItemCount int
	// Header resolves names; nil when the file has no header.
	Header FieldResolver
	// DefaultColStop overrides DefaultColStop when positive.
	DefaultColStop int
}

// Specifications is the compiled form of one spec list. All records share one Kind.
type Specifications struct {
	kind      Kind
	items     []string
	records   []SpecRecord
	itemCount int
	dropped   []string
}

// SplitItems splits a comma separated spec list into items. An empty list yields nil.
func SplitItems(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		items = append(items, strings.TrimSpace(p))
	}
	return items
}

// NewSpecifications compiles items for kind. An inclusion list with no items selects everything.
// Items that select nothing are dropped; every other failure is returned as a *SpecError.
func NewSpecifications(kind Kind, items []string, opts SpecOptions) (*Specifications, error) {
	if len(items) == 0 && !kind.IsExclusion() {
		items = []string{":"}
	}
	if opts.DefaultColStop <= 0 {
		opts.DefaultColStop = DefaultColStop
	}
	s := &Specifications{
		kind:      kind,
		items:     make([]string, 0, len(items)),
		itemCount: opts.ItemCount,
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			item = ":"
		}
		s.items = append(s.items, item)
	}
	for _, item := range s.items {
		rec, err := s.compileItem(item, opts)
		if errors.Is(err, ErrOutOfRange) {
			s.dropped = append(s.dropped, item)
			continue
		}
		if err != nil {
			return nil, &SpecError{Kind: kind, Item: item, Err: err}
		}
		s.records = append(s.records, rec)
	}
	return s, nil
}

// Kind returns the axis and direction shared by all records.
func (s *Specifications) Kind() Kind { return s.kind }

// Items returns the normalized spec items as given by the user.
func (s *Specifications) Items() []string { return s.items }

// Records returns the compiled records in spec order.
func (s *Specifications) Records() []SpecRecord { return s.records }

// Dropped returns the items that selected nothing.
func (s *Specifications) Dropped() []string { return s.dropped }

// ItemCount returns the count the specs were compiled against.
func (s *Specifications) ItemCount() int { return s.itemCount }

// HasAllInclusions reports whether an inclusion list selects every offset.
func (s *Specifications) HasAllInclusions() bool {
	if s.kind.IsExclusion() || len(s.items) != 1 {
		return false
	}
	switch s.items[0] {
	case ":", "::", "::1", "::-1":
		return true
	}
	return false
}

// HasExclusions reports whether an exclusion list removes anything.
func (s *Specifications) HasExclusions() bool {
	return s.kind.IsExclusion() && len(s.items) > 0
}

// HasDefaultRange reports whether any record carries a synthesized stop.
func (s *Specifications) HasDefaultRange() (col, rec bool) {
	for _, r := range s.records {
		col = col || r.ColDefaultRange
		rec = rec || r.RecDefaultRange
	}
	return col, rec
}

type partKind int

const (
	partEmpty partKind = iota
	partInteger
	partNegative
	partName
)

// part is one colon separated token of an item before any metadata is applied.
type part struct {
	kind  partKind
	value int
	name  string
}

func parsePart(token string) (part, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return part{kind: partEmpty}, nil
	}
	v, err := strconv.Atoi(token)
	if err == nil {
		if v < 0 {
			return part{kind: partNegative, value: v}, nil
		}
		return part{kind: partInteger, value: v}, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return part{}, ErrSpecSyntax
	}
	return part{kind: partName, name: token}, nil
}

func parseStep(token string) (float64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 1, nil
	}
	step, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(step) || math.IsInf(step, 0) {
		return 0, ErrSpecSyntax
	}
	if step == 0 {
		return 0, ErrInvalidSpecRecord
	}
	return step, nil
}

// compileItem runs tokenize, translate, resolve defaults and validate for one item.
func (s *Specifications) compileItem(item string, opts SpecOptions) (SpecRecord, error) {
	tokens := strings.Split(item, ":")
	if len(tokens) > 3 {
		return SpecRecord{}, ErrSpecSyntax
	}
	isRange := len(tokens) > 1

	step := 1.0
	if len(tokens) == 3 {
		var err error
		if step, err = parseStep(tokens[2]); err != nil {
			return SpecRecord{}, err
		}
	}

	startPart, err := parsePart(tokens[0])
	if err != nil {
		return SpecRecord{}, err
	}
	stopPart := part{kind: partEmpty}
	if isRange {
		if stopPart, err = parsePart(tokens[1]); err != nil {
			return SpecRecord{}, err
		}
	}

	count := opts.ItemCount
	start, hasStart, err := s.translate(startPart, isRange, true, step, opts)
	if err != nil {
		return SpecRecord{}, err
	}
	stop, hasStop, err := s.translate(stopPart, isRange, false, step, opts)
	if err != nil {
		return SpecRecord{}, err
	}

	var colDefault, recDefault bool
	if !hasStart {
		switch {
		case step > 0:
			start = 0
		case count == UnknownCount:
			return SpecRecord{}, ErrNegativeStepWithoutItemCount
		default:
			start = count - 1
		}
	}
	switch {
	case hasStop:
	case !isRange && step > 0:
		stop = start + 1
	case !isRange:
		stop = start - 1
	case step < 0:
		stop = -1
	case count != UnknownCount:
		stop = count
	case s.kind.IsRow():
		if !s.kind.IsExclusion() && len(s.items) > 1 {
			return SpecRecord{}, ErrUnboundedStopWithoutItemCount
		}
		stop, recDefault = defaultRecStop, true
	default:
		stop, colDefault = opts.DefaultColStop, true
	}

	if !isRange && count != UnknownCount && start >= count {
		return SpecRecord{}, ErrOutOfRange
	}
	if count != UnknownCount {
		if step > 0 && stop > count {
			stop = count
		}
		if step < 0 && start > count-1 {
			start = count - 1
		}
	}
	if step > 0 && start >= stop || step < 0 && start <= stop {
		return SpecRecord{}, ErrOutOfRange
	}
	return NewSpecRecord(start, stop, step, s.kind, colDefault, recDefault)
}

// translate resolves one start or stop token into an offset. ok is false for an empty token.
func (s *Specifications) translate(p part, isRange, isStart bool, step float64, opts SpecOptions) (int, bool, error) {
	switch p.kind {
	case partEmpty:
		return 0, false, nil
	case partInteger:
		return p.value, true, nil
	case partName:
		if s.kind.IsRow() {
			return 0, false, ErrNameInRecordSpec
		}
		if opts.Header == nil {
			return 0, false, ErrNameWithoutHeader
		}
		pos, err := opts.Header.FieldPosition(p.name)
		if err != nil {
			return 0, false, errors.Join(ErrUnknownName, err)
		}
		return pos, true, nil
	}

	if opts.ItemCount == UnknownCount {
		return 0, false, ErrNegativeOffsetWithoutItemCount
	}
	adjusted := opts.ItemCount + p.value
	if adjusted >= 0 {
		return adjusted, true, nil
	}
	switch {
	case !isRange:
		return 0, false, ErrNegativeOutOfRange
	case isStart && step > 0:
		return 0, true, nil
	default:
		return -1, true, nil
	}
}

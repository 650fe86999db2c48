package csvslice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when a name is not part of the header.
	ErrUnknownField = errors.New("csvslice: field name not in header")
	// ErrFieldOffset is returned when an offset lies outside the header.
	ErrFieldOffset = errors.New("csvslice: field offset outside header")
)

// Header maps column names to offsets. The first occurrence of a duplicated name wins.
type Header struct {
	names     []string
	positions map[string]int
}

// NewHeader builds a Header from the fields of a header record.
func NewHeader(fields []string) *Header {
	h := &Header{
		names:     make([]string, len(fields)),
		positions: make(map[string]int, len(fields)),
	}
	copy(h.names, fields)
	for i, name := range h.names {
		if _, dup := h.positions[name]; !dup {
			h.positions[name] = i
		}
	}
	return h
}

// FieldPosition returns the offset of name. Surrounding whitespace is ignored when
// the exact name is absent.
func (h *Header) FieldPosition(name string) (int, error) {
	if h == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if pos, ok := h.positions[name]; ok {
		return pos, nil
	}
	trimmed := strings.TrimSpace(name)
	for i, n := range h.names {
		if strings.TrimSpace(n) == trimmed {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// FieldName returns the name stored at offset.
func (h *Header) FieldName(offset int) (string, error) {
	if h == nil || offset < 0 || offset >= len(h.names) {
		return "", fmt.Errorf("%w: %d", ErrFieldOffset, offset)
	}
	return h.names[offset], nil
}

// FieldNames returns a copy of the header fields in file order.
func (h *Header) FieldNames() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of header fields.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

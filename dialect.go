package csvslice

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDialect is returned when a Dialect holds conflicting or unusable settings.
var ErrInvalidDialect = errors.New("csvslice: invalid dialect")

// Quoting selects which fields a Writer quotes and whether a Reader honours quotes.
type Quoting int

const (
	// QuoteMinimal quotes only fields holding the delimiter, the quote or a line break.
	QuoteMinimal Quoting = iota
	// QuoteAll quotes every field.
	QuoteAll
	// QuoteNonNumeric quotes every field that does not parse as a number.
	QuoteNonNumeric
	// QuoteNone never quotes; special bytes are escaped instead.
	QuoteNone
)

var quotingNames = map[Quoting]string{
	QuoteMinimal:    "quote_minimal",
	QuoteAll:        "quote_all",
	QuoteNonNumeric: "quote_nonnumeric",
	QuoteNone:       "quote_none",
}

func (q Quoting) String() string {
	if name, ok := quotingNames[q]; ok {
		return name
	}
	return fmt.Sprintf("quoting(%d)", int(q))
}

// ParseQuoting maps a quoting name such as "quote_all" (case-insensitive) to its Quoting value.
func ParseQuoting(name string) (Quoting, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for q, n := range quotingNames {
		if n == name {
			return q, nil
		}
	}
	return QuoteMinimal, fmt.Errorf("%w: unknown quoting %q (expected quote_all, quote_minimal, quote_nonnumeric or quote_none)", ErrInvalidDialect, name)
}

// ParseDelimiter accepts a single byte or one of the names tab, comma, pipe, semicolon and space.
// The escaped form `\t` is also understood.
func ParseDelimiter(value string) (byte, error) {
	switch strings.ToLower(value) {
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "space":
		return ' ', nil
	}
	if len(value) != 1 {
		return 0, fmt.Errorf("%w: delimiter must be a single byte, got %q", ErrInvalidDialect, value)
	}
	return value[0], nil
}

// Dialect describes how a delimited file is laid out.
type Dialect struct {
	Delimiter  byte
	Quoting    Quoting
	QuoteChar  byte
	EscapeChar byte
	HasHeader  bool
	UseCRLF    bool
}

// DefaultDialect returns a comma separated, minimally quoted dialect without a header.
func DefaultDialect() Dialect {
	return Dialect{Delimiter: ',', Quoting: QuoteMinimal, QuoteChar: '"'}
}

// Validate reports conflicting settings.
func (d Dialect) Validate() error {
	if d.Delimiter == 0 {
		return fmt.Errorf("%w: delimiter is required", ErrInvalidDialect)
	}
	if d.Delimiter == '\n' || d.Delimiter == '\r' {
		return fmt.Errorf("%w: delimiter cannot be a line break", ErrInvalidDialect)
	}
	if d.Quoting < QuoteMinimal || d.Quoting > QuoteNone {
		return fmt.Errorf("%w: %s", ErrInvalidDialect, d.Quoting)
	}
	if d.Quoting != QuoteNone && d.QuoteChar == 0 {
		return fmt.Errorf("%w: quotechar is required unless quoting is quote_none", ErrInvalidDialect)
	}
	if d.QuoteChar != 0 && d.QuoteChar == d.Delimiter {
		return fmt.Errorf("%w: quotechar and delimiter are both %q", ErrInvalidDialect, d.Delimiter)
	}
	if d.EscapeChar != 0 && (d.EscapeChar == d.Delimiter || d.EscapeChar == d.QuoteChar) {
		return fmt.Errorf("%w: escapechar %q collides with delimiter or quotechar", ErrInvalidDialect, d.EscapeChar)
	}
	return nil
}

// NewReader returns a Reader configured for d. Records may vary in width.
func (d Dialect) NewReader(src io.Reader) *Reader {
	r := NewReader(src)
	r.Comma = d.Delimiter
	if d.QuoteChar != 0 {
		r.Quote = d.QuoteChar
	}
	r.Escape = d.EscapeChar
	r.NoQuotes = d.Quoting == QuoteNone
	r.FieldsPerRecord = -1
	return r
}

// NewWriter returns a Writer configured for d.
func (d Dialect) NewWriter(dst io.Writer) *Writer {
	w := NewWriter(dst)
	w.Comma = d.Delimiter
	if d.QuoteChar != 0 {
		w.Quote = d.QuoteChar
	}
	w.Escape = d.EscapeChar
	w.Quoting = d.Quoting
	w.UseCRLF = d.UseCRLF
	return w
}

package slicer

const (
	// recordOverhead approximates the slice header and bookkeeping held per buffered record.
	recordOverhead = 24 + 24
	// fieldOverhead approximates one string header.
	fieldOverhead = 16
)

// MemoryLimiter tracks an approximate byte count for buffered records against a fixed budget.
type MemoryLimiter struct {
	maxBytes int64
	used     int64
}

// NewMemoryLimiter returns a limiter enforcing maxBytes. A non-positive budget disables the check.
func NewMemoryLimiter(maxBytes int64) *MemoryLimiter {
	return &MemoryLimiter{maxBytes: maxBytes}
}

// RecordSize is the approximate number of bytes a buffered record occupies.
func RecordSize(record []string) int64 {
	size := int64(recordOverhead)
	for _, f := range record {
		size += int64(len(f)) + fieldOverhead
	}
	return size
}

// Check adds record to the running total and fails once the budget is exceeded.
func (m *MemoryLimiter) Check(record []string, recNum int) error {
	m.used += RecordSize(record)
	if m.maxBytes > 0 && m.used > m.maxBytes {
		return &MemoryExceededError{Limit: m.maxBytes, Used: m.used, RecNum: recNum}
	}
	return nil
}

// Used returns the bytes accounted so far.
func (m *MemoryLimiter) Used() int64 { return m.used }

// Limit returns the configured budget.
func (m *MemoryLimiter) Limit() int64 { return m.maxBytes }

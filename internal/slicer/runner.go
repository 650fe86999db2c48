package slicer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/oleg578/csvslice"
)

// DefaultTempMaxAge is the age after which a leftover rerouted-stdin file is removed.
const DefaultTempMaxAge = 24 * time.Hour

// Config describes one slicing run.
type Config struct {
	// InFiles lists the inputs; "-" (the default) is stdin.
	InFiles []string
	// OutFile is the output path; "-" or "" is stdout.
	OutFile string

	Records   []string
	ExRecords []string
	Columns   []string
	ExColumns []string

	Dialect csvslice.Dialect

	// MaxMemBytes bounds in-memory buffering; zero disables the bound.
	MaxMemBytes    int64
	Limits         Limits
	DefaultColStop int

	TempDir    string
	TempMaxAge time.Duration

	Rand    RandSource
	Logger  *slog.Logger
	Metrics *metrics.Set

	Stdin  io.Reader
	Stdout io.Writer
}

type state int

const (
	stateSetup state = iota
	stateNeedCounts
	stateReady
	stateRunning
	stateDone
)

func (s state) String() string {
	switch s {
	case stateSetup:
		return "setup"
	case stateNeedCounts:
		return "need_counts"
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Strategy is the execution path chosen for a run.
type Strategy int

const (
	StreamPredicate Strategy = iota
	StreamIndex
	InMemory
)

func (s Strategy) String() string {
	switch s {
	case StreamPredicate:
		return "stream_predicate"
	case StreamIndex:
		return "stream_index"
	case InMemory:
		return "in_memory"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Runner compiles the four spec lists against the input and projects it to the output.
type Runner struct {
	cfg Config
	log *slog.Logger

	in      *input
	out     io.Writer
	outFile *os.File
	w       *csvslice.Writer

	rowCount int
	colCount int
	retried  bool
	needRows bool

	rows     *IndexOptimizer
	cols     *IndexOptimizer
	allRows  bool
	allCols  bool
	strategy Strategy
	colCache *colCache
	scratch  []string

	recordsRead     *metrics.Counter
	recordsWritten  *metrics.Counter
	recordsBuffered *metrics.Counter
	bytesBuffered   *metrics.Counter
}

// NewRunner validates cfg and fills defaults. Nothing is opened until Run.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Dialect.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxMemBytes < 0 {
		return nil, fmt.Errorf("%w: negative memory budget", ErrInvalidConfig)
	}
	if cfg.DefaultColStop <= 0 {
		cfg.DefaultColStop = DefaultColStop
	}
	if cfg.TempMaxAge <= 0 {
		cfg.TempMaxAge = DefaultTempMaxAge
	}
	cfg.Limits = cfg.Limits.withDefaults()
	if cfg.Rand == nil {
		cfg.Rand = NewRandSource(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewSet()
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Runner{
		cfg:             cfg,
		log:             cfg.Logger,
		rowCount:        UnknownCount,
		colCount:        UnknownCount,
		recordsRead:     cfg.Metrics.GetOrCreateCounter("csvslice_records_read_total"),
		recordsWritten:  cfg.Metrics.GetOrCreateCounter("csvslice_records_written_total"),
		recordsBuffered: cfg.Metrics.GetOrCreateCounter("csvslice_records_buffered_total"),
		bytesBuffered:   cfg.Metrics.GetOrCreateCounter("csvslice_buffered_bytes_total"),
	}, nil
}

// Strategy returns the execution path chosen by the last Run.
func (r *Runner) Strategy() Strategy { return r.strategy }

// Run executes the full lifecycle: setup, optional count probing, processing and shutdown.
func (r *Runner) Run(ctx context.Context) (err error) {
	if err := r.setupIO(); err != nil {
		r.shutdown()
		return err
	}
	defer func() {
		if cerr := r.shutdown(); err == nil || errors.Is(err, ErrEmptyInput) && cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	st := stateSetup
	var setupErr error
	for {
		r.log.Debug("runner state", "state", st)
		switch st {
		case stateSetup:
			setupErr = r.compile()
			switch {
			case setupErr == nil:
				st = stateReady
			case errors.Is(setupErr, ErrNeedItemCount) && !r.retried:
				st = stateNeedCounts
			default:
				return setupErr
			}
		case stateNeedCounts:
			r.retried = true
			if err := r.resolveCounts(setupErr); err != nil {
				return err
			}
			st = stateSetup
		case stateReady:
			if err := r.chooseStrategy(); err != nil {
				return err
			}
			r.in.StopCapture()
			st = stateRunning
		case stateRunning:
			if r.strategy == InMemory {
				err = r.processInMemory(ctx)
			} else {
				err = r.processStreaming(ctx)
			}
			if err != nil {
				return err
			}
			st = stateDone
		case stateDone:
			return nil
		}
	}
}

// setupIO is stage one: stale temp cleanup, input and output.
func (r *Runner) setupIO() error {
	if n, err := CleanStaleTempFiles(r.cfg.TempDir, r.cfg.TempMaxAge, r.log); err != nil {
		r.log.Warn("stale temp file scan failed", "error", err)
	} else if n > 0 {
		r.log.Info("removed stale temp files", "count", n)
	}

	in, err := openInput(r.cfg.InFiles, r.cfg.Dialect, r.cfg.Stdin, r.log)
	if err != nil {
		return err
	}
	r.in = in
	if h := in.Header(); h != nil {
		r.colCount = h.Len()
	}

	if r.cfg.OutFile == "" || r.cfg.OutFile == "-" {
		r.out = r.cfg.Stdout
	} else {
		f, err := os.Create(r.cfg.OutFile)
		if err != nil {
			return err
		}
		r.outFile = f
		r.out = f
	}
	r.w = r.cfg.Dialect.NewWriter(r.out)
	return nil
}

// compile is stage two: all four spec lists, their processors and optimizers.
func (r *Runner) compile() error {
	rowOpts := SpecOptions{ItemCount: r.rowCount}
	colOpts := SpecOptions{ItemCount: r.colCount, DefaultColStop: r.cfg.DefaultColStop}
	if h := r.in.Header(); h != nil {
		colOpts.Header = h
	}

	r.needRows = false
	inclRows, err := NewSpecifications(IncludeRows, r.cfg.Records, rowOpts)
	if err != nil {
		r.needRows = true
		return err
	}
	exclRows, err := NewSpecifications(ExcludeRows, r.cfg.ExRecords, rowOpts)
	if err != nil {
		r.needRows = true
		return err
	}
	inclCols, err := NewSpecifications(IncludeCols, r.cfg.Columns, colOpts)
	if err != nil {
		return err
	}
	exclCols, err := NewSpecifications(ExcludeCols, r.cfg.ExColumns, colOpts)
	if err != nil {
		return err
	}
	for _, s := range []*Specifications{inclRows, exclRows, inclCols, exclCols} {
		for _, item := range s.Dropped() {
			r.log.Debug("dropped spec item that selects nothing", "kind", s.Kind(), "item", item)
		}
	}

	maxItems := r.cfg.Limits.MaxItems
	r.rows = NewRowIndexOptimizer(
		NewSpecProcessor(inclRows, maxItems, r.cfg.Rand),
		NewSpecProcessor(exclRows, maxItems, r.cfg.Rand),
		r.cfg.Limits)
	r.cols = NewColIndexOptimizer(
		NewSpecProcessor(inclCols, maxItems, r.cfg.Rand),
		NewSpecProcessor(exclCols, maxItems, r.cfg.Rand),
		r.cfg.Limits)
	r.allRows = r.rows.OptimizedForAll()
	r.allCols = r.cols.OptimizedForAll() && !r.cols.NeedsReordering()
	r.colCache = newColCache(r.cols)
	return nil
}

// resolveCounts learns the counts a failed compile asked for. It runs at most once.
func (r *Runner) resolveCounts(cause error) error {
	r.log.Info("spec needs item counts, probing input", "reason", cause)
	if r.needRows {
		if r.in.IsStdin() {
			if err := r.in.RerouteStdin(r.cfg.TempDir); err != nil {
				return err
			}
		}
		n, err := r.in.CountRecords()
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}
		r.rowCount = n
		if h := r.in.Header(); h != nil {
			r.colCount = h.Len()
		}
		r.log.Info("counted records", "records", n)
	}
	if r.colCount == UnknownCount {
		width, ok, err := r.in.PeekWidth()
		if err != nil {
			return err
		}
		if !ok {
			return ErrEmptyInput
		}
		r.colCount = width
		r.log.Info("probed column count", "columns", width)
	}
	return nil
}

// chooseStrategy decides between streaming with predicates, streaming with the row
// index, and in-memory buffering.
func (r *Runner) chooseStrategy() error {
	rowIx := r.rows.Combined()
	switch {
	case r.rows.NeedsReordering() && (rowIx.Valid || r.allRows):
		r.strategy = InMemory
	case r.rows.NeedsReordering():
		return r.rows.LimitError("record")
	case !r.allRows && rowIx.Valid:
		r.strategy = StreamIndex
	default:
		r.strategy = StreamPredicate
	}
	if r.cols.NeedsReordering() && !r.cols.Combined().Valid {
		return r.cols.LimitError("column")
	}
	r.cfg.Metrics.GetOrCreateCounter(fmt.Sprintf(`csvslice_strategy_total{mode=%q}`, r.strategy)).Inc()
	r.log.Info("selected execution strategy",
		"strategy", r.strategy,
		"all_rows", r.allRows,
		"all_cols", r.allCols,
		"row_index_valid", rowIx.Valid,
		"col_index_valid", r.cols.Combined().Valid,
		"stop_rec", rowIx.StopRec)
	return nil
}

func (r *Runner) writeHeader() error {
	h := r.in.Header()
	if h == nil {
		return nil
	}
	return r.w.Write(r.project(h.FieldNames()))
}

func (r *Runner) emit(rec []string) error {
	if err := r.w.Write(r.project(rec)); err != nil {
		return err
	}
	r.recordsWritten.Inc()
	return nil
}

// stopEarly ends reading once no later record can be selected.
func (r *Runner) stopEarly(offset int) error {
	r.log.Debug("reached last selected record, stopping", "offset", offset)
	return r.in.Drain()
}

func (r *Runner) processStreaming(ctx context.Context) error {
	if err := r.writeHeader(); err != nil {
		return err
	}
	rowIx := r.rows.Combined()
	cursor := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		r.recordsRead.Inc()
		offset := r.in.RecNum() - 1

		switch {
		case r.allRows:
		case r.strategy == StreamIndex:
			if offset > rowIx.StopRec {
				if err := r.stopEarly(offset); err != nil {
					return err
				}
				return r.finish()
			}
			if cursor >= len(rowIx.Offsets) || rowIx.Offsets[cursor] != offset {
				continue
			}
			cursor++
		default:
			if !r.rows.Accept(offset) {
				continue
			}
		}
		if err := r.emit(rec); err != nil {
			return err
		}
	}
	return r.finish()
}

func (r *Runner) processInMemory(ctx context.Context) error {
	if err := r.writeHeader(); err != nil {
		return err
	}
	rowIx := r.rows.Combined()
	limiter := NewMemoryLimiter(r.cfg.MaxMemBytes)

	// With a row index only selected records are held, keyed by offset.
	var (
		buf  [][]string
		kept map[int][]string
	)
	if rowIx.Valid {
		kept = make(map[int][]string, len(rowIx.Offsets))
		for _, off := range rowIx.Offsets {
			kept[off] = nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		r.recordsRead.Inc()
		offset := r.in.RecNum() - 1
		if kept != nil {
			if offset > rowIx.StopRec {
				if err := r.stopEarly(offset); err != nil {
					return err
				}
				break
			}
			if _, ok := kept[offset]; !ok {
				continue
			}
		}
		if err := limiter.Check(rec, offset); err != nil {
			return err
		}
		if kept != nil {
			kept[offset] = rec
		} else {
			buf = append(buf, rec)
		}
		r.recordsBuffered.Inc()
		r.bytesBuffered.Add(int(RecordSize(rec)))
	}
	r.log.Info("buffered records", "records", r.recordsBuffered.Get(), "bytes", limiter.Used())

	if kept != nil {
		for _, offset := range rowIx.Offsets {
			if rec := kept[offset]; rec != nil {
				if err := r.emit(rec); err != nil {
					return err
				}
			}
		}
		return r.finish()
	}
	for _, offset := range r.rowOrder(len(buf)) {
		if err := r.emit(buf[offset]); err != nil {
			return err
		}
	}
	return r.finish()
}

// rowOrder is the emission order for a buffer holding every record.
func (r *Runner) rowOrder(n int) []int {
	order := make([]int, n)
	reverse := r.rows.Include().Indexer().IncludesReverse()
	for i := range order {
		if reverse {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

func (r *Runner) finish() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	if r.in.RecNum() == 0 {
		return ErrEmptyInput
	}
	return nil
}

// project selects the output fields of rec.
func (r *Runner) project(rec []string) []string {
	if r.allCols {
		return rec
	}
	colIx := r.cols.Combined()
	if colIx.Valid && colIx.ColDefaultRange {
		r.cols.PruneIndex(len(rec))
		colIx = r.cols.Combined()
	}
	out := r.scratch[:0]
	if colIx.Valid {
		for _, off := range colIx.Offsets {
			if off < len(rec) {
				out = append(out, rec[off])
			}
		}
	} else {
		for i := range rec {
			if r.colCache.accept(i) {
				out = append(out, rec[i])
			}
		}
	}
	r.scratch = out
	return out
}

// shutdown flushes and closes the output and closes the input, removing any temp file.
func (r *Runner) shutdown() error {
	var err error
	if r.w != nil {
		err = r.w.Flush()
	}
	if r.outFile != nil {
		err = errors.Join(err, r.outFile.Close())
		r.outFile = nil
	}
	if r.in != nil {
		err = errors.Join(err, r.in.Close())
		r.in = nil
	}
	return err
}

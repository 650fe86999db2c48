package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/oleg578/csvslice"
	"github.com/oleg578/csvslice/internal/logging"
	"github.com/oleg578/csvslice/internal/slicer"
	"github.com/oleg578/csvslice/internal/sysmem"
)

const (
	Version = "1.0.0"

	// defaultMemFraction is the share of physical memory used when --max-mem-gbytes is 0.
	defaultMemFraction = 0.5
)

const specHelp = `Slice expressions mirror Python slicing:

  3        a single offset (0-based)
  1:3      offsets 1 and 2
  ::2      every other offset
  ::-1     all offsets in reverse
  -2:      the last two offsets
  ::0.25   each offset with probability 0.25
  name     a column by header name

Separate items with commas; items are emitted in the order given, so
-r 0,2,0 repeats record 0.`

// streams carries the process I/O so commands can run in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func newRootCmd(s streams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csvslice",
		Short: "slice records and columns of delimited files",
		Long: fmt.Sprintf(`csvslice (v%s)

Select, reorder, repeat and sample the records and columns of CSV/TSV-like
files.

%s`, Version, specHelp),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unexpected arguments %q; pass input files with -i", args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSlice(cmd, s)
		},
	}
	rootCmd.SetIn(s.in)
	rootCmd.SetOut(s.out)
	rootCmd.SetErr(s.err)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of csvslice",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "csvslice v%s\n", Version)
		},
	})

	setupSliceFlags(rootCmd)
	return rootCmd
}

func setupSliceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("infiles", "i", []string{"-"}, WrapString("Input files; '-' reads stdin"))
	f.StringP("outfile", "o", "-", WrapString("Output file; '-' writes stdout"))
	f.StringP("records", "r", "", WrapString("Records to include, as a comma separated list of slice expressions (default all)"))
	f.StringP("exrecords", "R", "", WrapString("Records to exclude, as a comma separated list of offsets or ranges"))
	f.StringP("columns", "c", "", WrapString("Columns to include, as a comma separated list of slice expressions or header names (default all)"))
	f.StringP("excolumns", "C", "", WrapString("Columns to exclude, as a comma separated list of offsets, ranges or header names"))
	f.Bool("any-order", true, WrapString("Accepted for compatibility; repeats, reversal and reordering are always detected"))
	_ = f.MarkHidden("any-order")

	f.StringP("delimiter", "d", ",", WrapString("Field delimiter: a single character or one of tab, comma, pipe, semicolon, space"))
	f.String("quoting", "quote_minimal", WrapString("Quoting: quote_all, quote_minimal, quote_nonnumeric or quote_none"))
	f.String("quotechar", `"`, WrapString("Quote character"))
	f.String("escapechar", "", WrapString("Escape character, required by quote_none output that holds delimiters"))
	f.Bool("has-header", false, WrapString("The first record of each file is a header"))
	f.Bool("has-no-header", false, WrapString("The files have no header (default)"))
	f.Bool("crlf", false, WrapString("Terminate output records with CRLF"))

	f.Float64("max-mem-gbytes", 0, WrapString("Memory budget for reordering, repeats and reversal, in GiB (0 uses half of physical memory)"))
	f.Int("max-index-items", slicer.DefaultMaxIndexItems, WrapString("Largest offset index built before falling back to predicates"))
	f.Int("default-col-range", slicer.DefaultColStop, WrapString("Column stop assumed for open ranges while the column count is unknown"))
	f.Uint64("random-seed", 0, WrapString("Seed for fractional steps; 0 seeds from the clock"))
	f.String("temp-dir", "", WrapString("Directory for the temp file that holds rerouted stdin (default system temp dir)"))
	f.Duration("temp-max-age", slicer.DefaultTempMaxAge, WrapString("Leftover temp files older than this are removed at startup"))

	f.String("verbosity", "normal", WrapString("Log verbosity: quiet, normal, high or debug"))
	f.Bool("log-json", false, WrapString("Write logs as JSON lines"))
}

// buildConfig turns the decoded flags into a runner configuration.
func buildConfig(f sliceFlags) (slicer.Config, error) {
	cfg := slicer.Config{
		InFiles:        f.InFiles,
		OutFile:        f.OutFile,
		Records:        slicer.SplitItems(f.Records),
		ExRecords:      slicer.SplitItems(f.ExRecords),
		Columns:        slicer.SplitItems(f.Columns),
		ExColumns:      slicer.SplitItems(f.ExColumns),
		DefaultColStop: f.DefaultColRange,
		TempDir:        f.TempDir,
		TempMaxAge:     f.TempMaxAge,
		Limits:         slicer.Limits{MaxItems: f.MaxIndexItems},
		Rand:           slicer.NewRandSource(f.RandomSeed),
	}

	dialect, err := buildDialect(f)
	if err != nil {
		return cfg, err
	}
	cfg.Dialect = dialect

	if f.MaxMemGBytes == 0 {
		cfg.MaxMemBytes = sysmem.Budget(defaultMemFraction)
	} else {
		cfg.MaxMemBytes = int64(f.MaxMemGBytes * (1 << 30))
	}
	if cfg.TempMaxAge == 0 {
		cfg.TempMaxAge = slicer.DefaultTempMaxAge
	}
	return cfg, nil
}

func buildDialect(f sliceFlags) (csvslice.Dialect, error) {
	d := csvslice.DefaultDialect()

	delim, err := csvslice.ParseDelimiter(f.Delimiter)
	if err != nil {
		return d, &usageError{err}
	}
	d.Delimiter = delim

	if d.Quoting, err = csvslice.ParseQuoting(f.Quoting); err != nil {
		return d, &usageError{err}
	}
	switch {
	case f.QuoteChar != "":
		d.QuoteChar = f.QuoteChar[0]
	case d.Quoting == csvslice.QuoteNone:
		d.QuoteChar = 0
	default:
		return d, &usageError{errors.New("--quotechar is required unless quoting is quote_none")}
	}
	if f.EscapeChar != "" {
		d.EscapeChar = f.EscapeChar[0]
	}
	d.HasHeader = f.HasHeader
	d.UseCRLF = f.CRLF

	if err := d.Validate(); err != nil {
		return d, &usageError{err}
	}
	return d, nil
}

func runSlice(cmd *cobra.Command, s streams) error {
	v, err := newConfigStore(cmd)
	if err != nil {
		return &usageError{err}
	}
	f, err := decodeFlags(v)
	if err != nil {
		return err
	}
	verbosity, err := logging.ParseVerbosity(f.Verbosity)
	if err != nil {
		return &usageError{err}
	}
	logger := logging.New(logging.Config{
		Verbosity: verbosity,
		JSON:      f.LogJSON,
		Writer:    s.err,
		Service:   "csvslice",
	})

	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}
	set := metrics.NewSet()
	cfg.Logger = logger
	cfg.Metrics = set
	cfg.Stdin = s.in
	cfg.Stdout = s.out

	if readsStdin(cfg.InFiles) {
		if f, ok := s.in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			logger.Warn("reading records from the terminal; end input with Ctrl-D")
		}
	}
	logger.Debug("configuration" + describeConfig(cfg, verbosity.String()))

	runner, err := slicer.NewRunner(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = runner.Run(ctx)
	logger.Info("slice finished",
		"strategy", runner.Strategy(),
		"duration", time.Since(start).Round(time.Millisecond),
		"error", err)
	if verbosity == logging.Debug {
		set.WritePrometheus(s.err)
	}
	return err
}

func readsStdin(paths []string) bool {
	if len(paths) == 0 {
		return true
	}
	for _, p := range paths {
		if p == "-" {
			return true
		}
	}
	return false
}

// exitCode maps err onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return 1
	}
	switch slicer.Classify(err) {
	case slicer.ClassUsage:
		return 1
	case slicer.ClassData:
		return 2
	case slicer.ClassEmpty:
		return int(unix.ENODATA)
	default:
		return 3
	}
}

// Execute runs the command line against the process streams and returns the exit status.
func Execute(args []string) int {
	return execute(args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(args []string, s streams) int {
	rootCmd := newRootCmd(s)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	code := exitCode(err)
	switch {
	case err == nil:
	case errors.Is(err, slicer.ErrEmptyInput):
		fmt.Fprintln(s.err, "csvslice: input is empty")
	default:
		fmt.Fprintf(s.err, "csvslice: %v\n", err)
	}
	return code
}

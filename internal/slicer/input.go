package slicer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/oleg578/csvslice"
)

// TempPrefix names the files that hold rerouted stdin so stale ones can be found later.
const TempPrefix = "csvslice-stdin-"

// captureReader copies what it reads into buf while capturing is on, so the bytes
// already consumed from stdin can be replayed after rerouting it to a file.
type captureReader struct {
	src       io.Reader
	buf       bytes.Buffer
	capturing bool
}

func (c *captureReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if c.capturing && n > 0 {
		c.buf.Write(p[:n])
	}
	return n, err
}

func (c *captureReader) stop() {
	c.capturing = false
	c.buf = bytes.Buffer{}
}

// input presents one or more files, or stdin, as a single stream of data records.
// With a header dialect, the first file's header is kept and later headers are skipped.
type input struct {
	paths   []string
	dialect csvslice.Dialect
	stdin   *captureReader
	log     *slog.Logger

	cur     int
	file    *os.File
	rdr     *csvslice.Reader
	header  *csvslice.Header
	pending [][]string
	recNum  int

	tempPath string
}

func openInput(paths []string, dialect csvslice.Dialect, stdin io.Reader, log *slog.Logger) (*input, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	stdinCount := 0
	for _, p := range paths {
		if p == "-" {
			stdinCount++
		}
	}
	if stdinCount > 0 && len(paths) > 1 {
		return nil, fmt.Errorf("%w: stdin '-' cannot be mixed with other input files", ErrInvalidConfig)
	}
	in := &input{
		paths:   append([]string(nil), paths...),
		dialect: dialect,
		log:     log,
	}
	if stdinCount > 0 {
		in.stdin = &captureReader{src: stdin, capturing: true}
	}
	if err := in.openAt(0); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

// IsStdin reports whether records still come from the live stdin stream.
func (in *input) IsStdin() bool { return in.stdin != nil && in.tempPath == "" }

// Header returns the header of the first file, nil without one.
func (in *input) Header() *csvslice.Header { return in.header }

// RecNum returns the number of data records handed out so far.
func (in *input) RecNum() int { return in.recNum }

func (in *input) openAt(i int) error {
	if in.file != nil {
		in.file.Close()
		in.file = nil
	}
	in.cur = i
	var src io.Reader
	if in.paths[i] == "-" {
		src = in.stdin
	} else {
		f, err := os.Open(in.paths[i])
		if err != nil {
			return err
		}
		in.file = f
		src = f
	}
	in.rdr = in.dialect.NewReader(src)
	if !in.dialect.HasHeader {
		return nil
	}
	rec, err := in.rdr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if i == 0 {
		in.header = csvslice.NewHeader(rec)
	}
	return nil
}

// fetch returns the next raw data record across all files.
func (in *input) fetch() ([]string, error) {
	for {
		rec, err := in.rdr.Read()
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", in.name(), err)
		}
		if in.cur+1 >= len(in.paths) {
			return nil, io.EOF
		}
		if err := in.openAt(in.cur + 1); err != nil {
			return nil, err
		}
	}
}

func (in *input) name() string {
	if in.paths[in.cur] == "-" {
		return "stdin"
	}
	return in.paths[in.cur]
}

// Read returns the next data record; io.EOF ends the stream.
func (in *input) Read() ([]string, error) {
	if len(in.pending) > 0 {
		rec := in.pending[0]
		in.pending = in.pending[1:]
		in.recNum++
		return rec, nil
	}
	rec, err := in.fetch()
	if err != nil {
		return nil, err
	}
	in.recNum++
	return rec, nil
}

// PeekWidth reads the first data record without consuming it and returns its width.
// ok is false when there are no data records.
func (in *input) PeekWidth() (width int, ok bool, err error) {
	if len(in.pending) > 0 {
		return len(in.pending[0]), true, nil
	}
	rec, err := in.fetch()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	in.pending = append(in.pending, rec)
	return len(rec), true, nil
}

// Reset rewinds to the first data record. Live stdin cannot be rewound.
func (in *input) Reset() error {
	if in.IsStdin() {
		return fmt.Errorf("%w: stdin cannot be rewound", ErrInvalidConfig)
	}
	in.pending = nil
	in.recNum = 0
	in.header = nil
	return in.openAt(0)
}

// CountRecords counts the data records with a full pass and rewinds.
func (in *input) CountRecords() (int, error) {
	if err := in.Reset(); err != nil {
		return 0, err
	}
	count := 0
	for {
		if _, err := in.fetch(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		count++
	}
	return count, in.Reset()
}

// RerouteStdin copies the bytes consumed so far plus the rest of stdin into a temp file
// and switches the input to that file.
func (in *input) RerouteStdin(dir string) error {
	if !in.IsStdin() {
		return nil
	}
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, TempPrefix+uuid.NewString()+".csv")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	in.tempPath = path

	prefix := in.stdin.buf.Bytes()
	n, err := f.Write(prefix)
	if err == nil {
		var rest int64
		rest, err = io.Copy(f, in.stdin.src)
		n += int(rest)
	}
	in.stdin.stop()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("rerouting stdin to %s: %w", path, err)
	}
	in.log.Info("rerouted stdin to temp file", "path", path, "bytes", n)
	in.paths[0] = path
	return in.Reset()
}

// StopCapture ends replay buffering once stdin is known not to need rerouting.
func (in *input) StopCapture() {
	if in.stdin != nil {
		in.stdin.stop()
	}
}

// Drain consumes the remainder of live stdin so the producer does not get SIGPIPE.
func (in *input) Drain() error {
	if !in.IsStdin() {
		return nil
	}
	n, err := io.Copy(io.Discard, in.stdin.src)
	in.log.Debug("drained stdin after early stop", "bytes", n)
	return err
}

// Close releases the open file and removes the temp file, if any.
func (in *input) Close() error {
	var err error
	if in.file != nil {
		err = in.file.Close()
		in.file = nil
	}
	if in.tempPath != "" {
		if rerr := os.Remove(in.tempPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = errors.Join(err, rerr)
		}
		in.tempPath = ""
	}
	return err
}

// CleanStaleTempFiles removes rerouted-stdin files in dir older than maxAge.
func CleanStaleTempFiles(dir string, maxAge time.Duration, log *slog.Logger) (int, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, TempPrefix+"*"))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warn("could not remove stale temp file", "path", path, "error", err)
			continue
		}
		log.Debug("removed stale temp file", "path", path, "age", time.Since(info.ModTime()).Round(time.Second))
		removed++
	}
	return removed, nil
}

// # csvslice: slicing delimited files by record and column
//
// csvslice selects, reorders, repeats and samples the records and columns of
// CSV/TSV-like files using Python-style slice expressions such as `1:3`,
// `::-1`, `-2:`, `::0.1` or header names.
//
// # Packages
//
// - The root package holds the streaming record codec: a low-allocation RFC 4180 `Reader`,
//   a buffered `Writer` with Python-compatible quoting modes, the `Dialect` that configures both,
//   and `Header` for name resolution.
// - `internal/slicer` parses slice expressions, materialises offset indexes and drives the
//   streaming or in-memory projection of a file.
// - `cmd/csvslice` is the command line front end.
//
// # Errors
//
// Codec failures are reported via `ParseError`, `ErrBareQuote`, `ErrUnterminatedQuote`,
// `ErrorFieldCount` and `ErrNeedsEscape`.
package csvslice

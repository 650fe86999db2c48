package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oleg578/csvslice/internal/slicer"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
	// envPrefix is prepended to every flag name to form its environment variable.
	envPrefix = "csvslice"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// newConfigStore loads .env files and returns a viper instance bound to cmd's flags,
// so every flag can also be set as CSVSLICE_<FLAG> (e.g. CSVSLICE_MAX_MEM_GBYTES=2).
func newConfigStore(cmd *cobra.Command) (*viper.Viper, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

// usageError marks failures in the command line itself.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// describeConfig renders the resolved run settings for debug output.
func describeConfig(cfg slicer.Config, verbosity string) string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return "-"
		}
		return strings.Join(items, ",")
	}

	addSection("Files")
	addField("Input", list(cfg.InFiles))
	addField("Output", cfg.OutFile)
	addField("Temp Dir", cfg.TempDir)
	addField("Temp Max Age", cfg.TempMaxAge.String())

	addSection("Specs")
	addField("Records", list(cfg.Records))
	addField("Excluded Records", list(cfg.ExRecords))
	addField("Columns", list(cfg.Columns))
	addField("Excluded Columns", list(cfg.ExColumns))
	addField("Default Column Range", fmt.Sprintf("%d", cfg.DefaultColStop))

	addSection("Dialect")
	addField("Delimiter", fmt.Sprintf("%q", cfg.Dialect.Delimiter))
	addField("Quoting", cfg.Dialect.Quoting.String())
	addField("Quote Char", fmt.Sprintf("%q", cfg.Dialect.QuoteChar))
	addField("Escape Char", fmt.Sprintf("%q", cfg.Dialect.EscapeChar))
	addField("Has Header", fmt.Sprintf("%t", cfg.Dialect.HasHeader))

	addSection("Limits")
	addField("Memory Budget", fmt.Sprintf("%d bytes", cfg.MaxMemBytes))
	addField("Max Index Items", fmt.Sprintf("%d", cfg.Limits.MaxItems))
	addField("Max Exclusion Items", fmt.Sprintf("%d", cfg.Limits.MaxExclusionItems))
	addField("Verbosity", verbosity)
	return sb.String()
}

package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// flagValidate checks decoded flags before they reach the runner.
var flagValidate *validator.Validate

var sliceFlagsType = reflect.TypeOf(sliceFlags{})

func init() {
	flagValidate = validator.New()
	_ = flagValidate.RegisterValidation("char", validateChar)
}

// validateChar accepts an empty value or a single byte.
func validateChar(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= 1
}

// sliceFlags is the decoded form of the root command's flags and CSVSLICE_* variables.
type sliceFlags struct {
	InFiles   []string `mapstructure:"infiles" validate:"min=1,dive,required"`
	OutFile   string   `mapstructure:"outfile" validate:"required"`
	Records   string   `mapstructure:"records"`
	ExRecords string   `mapstructure:"exrecords"`
	Columns   string   `mapstructure:"columns"`
	ExColumns string   `mapstructure:"excolumns"`

	Delimiter   string `mapstructure:"delimiter" validate:"required"`
	Quoting     string `mapstructure:"quoting" validate:"required"`
	QuoteChar   string `mapstructure:"quotechar" validate:"char"`
	EscapeChar  string `mapstructure:"escapechar" validate:"char"`
	HasHeader   bool   `mapstructure:"has-header"`
	HasNoHeader bool   `mapstructure:"has-no-header"`
	CRLF        bool   `mapstructure:"crlf"`

	MaxMemGBytes    float64       `mapstructure:"max-mem-gbytes" validate:"gte=0"`
	MaxIndexItems   int           `mapstructure:"max-index-items" validate:"gt=0"`
	DefaultColRange int           `mapstructure:"default-col-range" validate:"gt=0"`
	RandomSeed      uint64        `mapstructure:"random-seed"`
	TempDir         string        `mapstructure:"temp-dir"`
	TempMaxAge      time.Duration `mapstructure:"temp-max-age" validate:"gte=0"`

	Verbosity string `mapstructure:"verbosity"`
	LogJSON   bool   `mapstructure:"log-json"`
}

// decodeFlags unmarshals v into sliceFlags and validates the result.
func decodeFlags(v *viper.Viper) (sliceFlags, error) {
	var f sliceFlags
	if err := v.Unmarshal(&f); err != nil {
		return f, &usageError{fmt.Errorf("decoding flags: %w", err)}
	}
	if err := flagValidate.Struct(f); err != nil {
		return f, &usageError{describeValidation(err)}
	}
	if f.HasHeader && f.HasNoHeader {
		return f, &usageError{errors.New("--has-header and --has-no-header are mutually exclusive")}
	}
	return f, nil
}

// describeValidation turns validator errors into flag-oriented messages.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.StructField()
		if field, ok := sliceFlagsType.FieldByName(name); ok {
			name = "--" + field.Tag.Get("mapstructure")
		}
		switch fe.Tag() {
		case "char":
			msgs = append(msgs, fmt.Sprintf("%s must be a single character, got %q", name, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s fails %s%s (got %v)", name, fe.Tag(), paramSuffix(fe.Param()), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

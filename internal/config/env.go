// This file contains the environment variable overrides.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// rawLists holds the list flags before they are split and validated.
type rawLists struct {
	circuits string
	widths   string
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override: the env key
// (without the QARITH_ prefix), the flags that take precedence over it and
// the function applying its value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, *rawLists, string) error
}

func intOverride(key string, field func(*AppConfig) *int) func(*AppConfig, *rawLists, string) error {
	return func(c *AppConfig, _ *rawLists, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewConfigError("invalid %s%s=%q", EnvPrefix, key, v)
		}
		*field(c) = parsed
		return nil
	}
}

func boolOverride(key string, field func(*AppConfig) *bool) func(*AppConfig, *rawLists, string) error {
	return func(c *AppConfig, _ *rawLists, v string) error {
		parsed, ok := parseBoolEnv(v)
		if !ok {
			return apperrors.NewConfigError("invalid %s%s=%q", EnvPrefix, key, v)
		}
		*field(c) = parsed
		return nil
	}
}

func stringOverride(field func(*AppConfig) *string) func(*AppConfig, *rawLists, string) error {
	return func(c *AppConfig, _ *rawLists, v string) error {
		*field(c) = v
		return nil
	}
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Lists
	{"CIRCUITS", []string{"circuits"}, func(_ *AppConfig, r *rawLists, v string) error {
		r.circuits = v
		return nil
	}},
	{"WIDTHS", []string{"widths"}, func(_ *AppConfig, r *rawLists, v string) error {
		r.widths = v
		return nil
	}},

	// Numeric overrides
	{"SEED", []string{"seed"}, func(c *AppConfig, _ *rawLists, v string) error {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return apperrors.NewConfigError("invalid %sSEED=%q", EnvPrefix, v)
		}
		c.Seed = parsed
		return nil
	}},
	{"SAMPLES", []string{"samples"}, intOverride("SAMPLES", func(c *AppConfig) *int { return &c.Samples })},
	{"UNARY_EXHAUSTIVE_MAX", []string{"unary-exhaustive-max"}, intOverride("UNARY_EXHAUSTIVE_MAX", func(c *AppConfig) *int { return &c.UnaryExhaustiveMax })},
	{"MULTI_EXHAUSTIVE_MAX", []string{"multi-exhaustive-max"}, intOverride("MULTI_EXHAUSTIVE_MAX", func(c *AppConfig) *int { return &c.MultiExhaustiveMax })},
	{"SUPERPOSITION_RUNS", []string{"superposition-runs"}, intOverride("SUPERPOSITION_RUNS", func(c *AppConfig) *int { return &c.SuperpositionRuns })},
	{"PARALLEL", []string{"parallel"}, intOverride("PARALLEL", func(c *AppConfig) *int { return &c.Parallel })},
	{"TOLERANCE", []string{"tolerance"}, func(c *AppConfig, _ *rawLists, v string) error {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewConfigError("invalid %sTOLERANCE=%q", EnvPrefix, v)
		}
		c.Tolerance = parsed
		return nil
	}},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, _ *rawLists, v string) error {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return apperrors.NewConfigError("invalid %sTIMEOUT=%q", EnvPrefix, v)
		}
		c.Timeout = parsed
		return nil
	}},

	// String overrides
	{"BACKEND", []string{"backend"}, stringOverride(func(c *AppConfig) *string { return &c.Backend })},
	{"ENGINE", []string{"engine"}, stringOverride(func(c *AppConfig) *string { return &c.EngineCommand })},
	{"NAMESPACE", []string{"namespace"}, stringOverride(func(c *AppConfig) *string { return &c.Namespace })},
	{"HELPERS", []string{"helpers"}, stringOverride(func(c *AppConfig) *string { return &c.Helpers })},
	{"REPORT", []string{"report", "o"}, stringOverride(func(c *AppConfig) *string { return &c.ReportFile })},
	{"HTML", []string{"html"}, stringOverride(func(c *AppConfig) *string { return &c.HTMLReport })},
	{"METRICS_FILE", []string{"metrics-file"}, stringOverride(func(c *AppConfig) *string { return &c.MetricsFile })},
	{"METRICS_ADDR", []string{"metrics-addr"}, stringOverride(func(c *AppConfig) *string { return &c.MetricsAddr })},

	// Boolean overrides
	{"SUPERPOSITION", []string{"superposition"}, boolOverride("SUPERPOSITION", func(c *AppConfig) *bool { return &c.Superposition })},
	{"VERBOSE", []string{"v", "verbose"}, boolOverride("VERBOSE", func(c *AppConfig) *bool { return &c.Verbose })},
	{"QUIET", []string{"quiet", "q"}, boolOverride("QUIET", func(c *AppConfig) *bool { return &c.Quiet })},
	{"NO_COLOR", []string{"no-color"}, boolOverride("NO_COLOR", func(c *AppConfig) *bool { return &c.NoColor })},
}

// parseBoolEnv accepts "true", "1", "yes" as true and "false", "0", "no" as
// false, case-insensitively.
func parseBoolEnv(val string) (bool, bool) {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line. A malformed
// value is a configuration error.
func applyEnvOverrides(config *AppConfig, raw *rawLists, fs *flag.FlagSet) error {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			if err := o.apply(config, raw, val); err != nil {
				return err
			}
		}
	}
	return nil
}

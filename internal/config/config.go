// Package config defines the command-line configuration of qarithcheck and
// its environment variable overrides.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/qarithcheck/internal/campaign"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/superposition"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "QARITH_"

// Backends.
const (
	BackendSimulator = "simulator"
	BackendProcess   = "process"
)

// Defaults.
const (
	DefaultTimeout   = 10 * time.Minute
	DefaultNamespace = "Arith"
	DefaultHelpers   = "TestUtils"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Circuits names the campaigns to run; "all" runs every registered one.
	Circuits []string
	// List prints the registered campaigns and exits.
	List bool
	// Seed is the master seed of every random case. 0 draws one from the
	// clock; the chosen seed is reported so a run can be replayed.
	Seed int64
	// Samples is the random case count per width.
	Samples int
	// Widths, when set, replaces the sweep widths of every campaign.
	Widths []int
	// UnaryExhaustiveMax and MultiExhaustiveMax are the exhaustive
	// enumeration thresholds.
	UnaryExhaustiveMax int
	MultiExhaustiveMax int
	// Tolerance is the absolute tolerance of superposition comparisons.
	Tolerance float64
	// Superposition enables the superposition protocol where declared.
	Superposition     bool
	SuperpositionRuns int
	// Parallel is the number of campaigns run at once, each on its own
	// engine session.
	Parallel int
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Backend selects the engine: the built-in simulator or an external
	// process.
	Backend string
	// EngineCommand is the external engine command line.
	EngineCommand string
	// Namespace is the namespace of the operations under test.
	Namespace string
	// Helpers is the namespace of the Q# helper operations.
	Helpers string
	// ReportFile, HTMLReport and MetricsFile are optional output paths.
	ReportFile  string
	HTMLReport  string
	MetricsFile string
	// MetricsAddr serves the metrics over HTTP during the run.
	MetricsAddr string
	Verbose     bool
	Quiet       bool
	NoColor     bool
}

// ToStrategy returns the campaign strategy configured by c.
func (c AppConfig) ToStrategy() campaign.Strategy {
	s := campaign.DefaultStrategy()
	s.UnaryExhaustiveMax = c.UnaryExhaustiveMax
	s.MultiExhaustiveMax = c.MultiExhaustiveMax
	s.Samples = c.Samples
	s.SuperpositionRuns = c.SuperpositionRuns
	return s
}

// EngineArgs splits EngineCommand into a program and its arguments.
func (c AppConfig) EngineArgs() (string, []string) {
	fields := strings.Fields(c.EngineCommand)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// ParseConfig parses the command-line arguments and applies environment
// overrides (CLI flags > QARITH_* variables > defaults). available lists the
// registered campaign names used to validate the selection.
func ParseConfig(programName string, args []string, errorWriter io.Writer, available []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	var circuits, widths string
	fs.StringVar(&circuits, "circuits", "all", fmt.Sprintf("Comma separated campaigns to run ('all' or %s).", strings.Join(available, ", ")))
	fs.BoolVar(&config.List, "list", false, "List the registered campaigns and exit.")
	fs.Int64Var(&config.Seed, "seed", 0, "Master seed of the random cases (0 picks one from the clock).")
	fs.IntVar(&config.Samples, "samples", campaign.DefaultSamples, "Random cases per width.")
	fs.StringVar(&widths, "widths", "", "Comma separated widths replacing every campaign's sweep.")
	fs.IntVar(&config.UnaryExhaustiveMax, "unary-exhaustive-max", campaign.DefaultUnaryExhaustiveMax, "Largest width enumerated exhaustively for one varying argument.")
	fs.IntVar(&config.MultiExhaustiveMax, "multi-exhaustive-max", campaign.DefaultMultiExhaustiveMax, "Largest width enumerated exhaustively for several varying arguments.")
	fs.Float64Var(&config.Tolerance, "tolerance", superposition.DefaultTolerance, "Absolute tolerance of superposition comparisons.")
	fs.BoolVar(&config.Superposition, "superposition", true, "Run the superposition protocol where declared.")
	fs.IntVar(&config.SuperpositionRuns, "superposition-runs", campaign.DefaultSuperpositionRuns, "Superposition checks per declared width.")
	fs.IntVar(&config.Parallel, "parallel", 1, "Campaigns run at once, one engine session each.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of the run.")
	fs.StringVar(&config.Backend, "backend", BackendSimulator, "Engine backend: 'simulator' or 'process'.")
	fs.StringVar(&config.EngineCommand, "engine", "", "External engine command line (process backend).")
	fs.StringVar(&config.Namespace, "namespace", DefaultNamespace, "Namespace of the operations under test.")
	fs.StringVar(&config.Helpers, "helpers", DefaultHelpers, "Namespace of the Q# helper operations (process backend).")
	fs.StringVar(&config.ReportFile, "report", "", "Write the JSON report to this file.")
	fs.StringVar(&config.ReportFile, "o", "", "Write the JSON report to this file (shorthand).")
	fs.StringVar(&config.HTMLReport, "html", "", "Write the HTML report to this file.")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write the metrics in Prometheus text format to this file.")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve the metrics over HTTP on this address during the run.")
	fs.BoolVar(&config.Verbose, "v", false, "Log every case.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Log every case.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the summary line.")
	fs.BoolVar(&config.Quiet, "q", false, "Print only the summary line (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	// The list flags are parsed after the overrides so QARITH_CIRCUITS and
	// QARITH_WIDTHS go through the same validation.
	raw := rawLists{circuits: circuits, widths: widths}
	if err := applyEnvOverrides(&config, &raw, fs); err != nil {
		return AppConfig{}, err
	}
	var err error
	config.Circuits = splitList(raw.circuits)
	if config.Widths, err = parseWidths(raw.widths); err != nil {
		return AppConfig{}, err
	}
	if err := config.Validate(available); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}

// Validate checks the consistency of the configuration.
func (c AppConfig) Validate(available []string) error {
	switch {
	case c.Samples < 1:
		return apperrors.NewConfigError("--samples must be at least 1, got %d", c.Samples)
	case c.UnaryExhaustiveMax < 0 || c.MultiExhaustiveMax < 0:
		return apperrors.NewConfigError("exhaustive thresholds cannot be negative")
	case c.Tolerance <= 0 || c.Tolerance >= 1:
		return apperrors.NewConfigError("--tolerance must be in (0, 1), got %g", c.Tolerance)
	case c.SuperpositionRuns < 1:
		return apperrors.NewConfigError("--superposition-runs must be at least 1, got %d", c.SuperpositionRuns)
	case c.Parallel < 1:
		return apperrors.NewConfigError("--parallel must be at least 1, got %d", c.Parallel)
	case c.Timeout <= 0:
		return apperrors.NewConfigError("--timeout must be positive")
	case c.Namespace == "":
		return apperrors.NewConfigError("--namespace cannot be empty")
	}
	switch c.Backend {
	case BackendSimulator:
	case BackendProcess:
		if strings.TrimSpace(c.EngineCommand) == "" {
			return apperrors.NewConfigError("the process backend needs --engine")
		}
	default:
		return apperrors.NewConfigError("unknown backend %q (want %s or %s)", c.Backend, BackendSimulator, BackendProcess)
	}
	for _, w := range c.Widths {
		if w < 1 {
			return apperrors.NewConfigError("width %d is not positive", w)
		}
	}
	if len(c.Circuits) == 0 {
		return apperrors.NewConfigError("no campaign selected")
	}
	for _, name := range c.Circuits {
		if name == "all" {
			continue
		}
		if available != nil && !slices.Contains(available, name) {
			return apperrors.NewConfigError("unknown campaign %q (available: %s)", name, strings.Join(available, ", "))
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseWidths(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid width %q", part)
		}
		out = append(out, w)
	}
	return out, nil
}

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/config"
	"github.com/agbru/qarithcheck/internal/ui"
)

// PrintExecutionConfig displays the run configuration: campaigns, seed,
// engine backend and environment.
func PrintExecutionConfig(cfg config.AppConfig, circuits []campaign.Circuit, out io.Writer) {
	names := make([]string, len(circuits))
	for i, c := range circuits {
		names[i] = c.Name
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Running %s%d%s campaigns (%s) with a timeout of %s%s%s.\n",
		ui.ColorPrimary(), len(circuits), ui.ColorReset(), strings.Join(names, ", "),
		ui.ColorWarning(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Master seed: %s%d%s (replay with --seed %d).\n",
		ui.ColorInfo(), cfg.Seed, ui.ColorReset(), cfg.Seed)
	engine := cfg.Backend
	if cfg.Backend == config.BackendProcess {
		engine = fmt.Sprintf("%s (%s)", cfg.Backend, cfg.EngineCommand)
	}
	fmt.Fprintf(out, "Engine: %s%s%s, namespace %s, %d parallel session(s).\n",
		ui.ColorSecondary(), engine, ui.ColorReset(), cfg.Namespace, max(1, cfg.Parallel))
	superposition := "disabled"
	if cfg.Superposition {
		superposition = fmt.Sprintf("%d runs per width, tolerance %g", cfg.SuperpositionRuns, cfg.Tolerance)
	}
	fmt.Fprintf(out, "Strategy: %d samples per width, exhaustive up to %d/%d bits, superposition %s.\n",
		cfg.Samples, cfg.UnaryExhaustiveMax, cfg.MultiExhaustiveMax, superposition)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorSecondary(), runtime.NumCPU(), ui.ColorReset(), ui.ColorSecondary(), runtime.Version(), ui.ColorReset())
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// DisplayCircuitList prints the registered campaigns, one per line.
func DisplayCircuitList(cat campaign.Catalog, out io.Writer) {
	circuits := cat.GetAll()
	width := 0
	for _, c := range circuits {
		width = max(width, len(c.Name))
	}
	for _, c := range circuits {
		fmt.Fprintf(out, "%s%-*s%s  %-10s %v  %s\n",
			ui.ColorPrimary(), width, c.Name, ui.ColorReset(), c.Shape, c.Widths, c.Description)
	}
}

// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     Examples: [DisplayProgress], [DisplayFailure], [DisplayQuietSummary].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatSummaryTable], [FormatQuietSummary].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteJSONReport].

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/orchestration"
	"github.com/agbru/qarithcheck/internal/ui"
)

// RunInfo describes a run in the JSON report.
type RunInfo struct {
	Seed      int64     `json:"seed"`
	Backend   string    `json:"backend"`
	Namespace string    `json:"namespace"`
	Started   time.Time `json:"started"`
	ExitCode  int       `json:"exit_code"`
}

type jsonReport struct {
	RunInfo
	Campaigns []jsonCampaign `json:"campaigns"`
}

type jsonCampaign struct {
	Circuit    string        `json:"circuit"`
	Cases      int           `json:"cases"`
	Passed     int           `json:"passed"`
	DurationMS float64       `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	Widths     []jsonWidth   `json:"widths"`
	Failures   []jsonFailure `json:"failures"`
}

type jsonWidth struct {
	N      int    `json:"n"`
	Regime string `json:"regime"`
	Cases  int    `json:"cases"`
	Passed int    `json:"passed"`
}

type jsonFailure struct {
	Regime        string   `json:"regime"`
	Widths        []int    `json:"widths"`
	Inputs        []string `json:"inputs,omitempty"`
	Distributions []string `json:"distributions,omitempty"`
	Expected      string   `json:"expected,omitempty"`
	Actual        string   `json:"actual,omitempty"`
	Seed          int64    `json:"seed,omitempty"`
	Error         string   `json:"error"`
}

func toJSON(info RunInfo, reports []campaign.Report) jsonReport {
	doc := jsonReport{RunInfo: info, Campaigns: make([]jsonCampaign, len(reports))}
	for i, r := range reports {
		c := jsonCampaign{
			Circuit:    r.Circuit,
			Cases:      r.Cases,
			Passed:     r.Passed,
			DurationMS: float64(r.Duration.Microseconds()) / 1000,
			Widths:     make([]jsonWidth, len(r.Widths)),
			Failures:   make([]jsonFailure, len(r.Failures)),
		}
		if r.Err != nil {
			c.Error = r.Err.Error()
		}
		for j, w := range r.Widths {
			c.Widths[j] = jsonWidth{N: w.N, Regime: w.Regime, Cases: w.Cases, Passed: w.Passed}
		}
		for j, f := range r.Failures {
			jf := jsonFailure{
				Regime:        f.Regime,
				Widths:        f.Widths,
				Distributions: f.Distributions,
				Expected:      f.Expected,
				Actual:        f.Actual,
				Seed:          f.Seed,
			}
			if f.Err != nil {
				jf.Error = f.Err.Error()
			}
			for _, v := range f.Inputs {
				jf.Inputs = append(jf.Inputs, v.String())
			}
			c.Failures[j] = jf
		}
		doc.Campaigns[i] = c
	}
	return doc
}

// WriteJSONReport writes every campaign report, failures in full, to path.
func WriteJSONReport(path string, info RunInfo, reports []campaign.Report) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(info, reports)); err != nil {
		file.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	return file.Close()
}

// FormatQuietSummary renders a single scriptable line:
// "PASS campaigns=3/3 cases=120 failures=0".
func FormatQuietSummary(reports []campaign.Report) string {
	s := orchestration.Summarize(reports)
	verdict := "PASS"
	if s.Passed != s.Campaigns {
		verdict = "FAIL"
	}
	return fmt.Sprintf("%s campaigns=%d/%d cases=%d failures=%d aborted=%d",
		verdict, s.Passed, s.Campaigns, s.Cases, s.Failures, s.Aborted)
}

// DisplayQuietSummary outputs the quiet-mode line.
func DisplayQuietSummary(reports []campaign.Report, out io.Writer) {
	fmt.Fprintln(out, FormatQuietSummary(reports))
}

// DisplaySaved confirms a written output file.
func DisplaySaved(kind, path string, out io.Writer) {
	fmt.Fprintf(out, "%s✓ %s saved to: %s%s%s\n",
		ui.ColorSuccess(), kind, ui.ColorPrimary(), path, ui.ColorReset())
}

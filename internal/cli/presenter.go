package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/format"
	"github.com/agbru/qarithcheck/internal/orchestration"
	"github.com/agbru/qarithcheck/internal/ui"
)

// MaxListedFailures caps the failed cases printed per campaign. The JSON
// report always carries all of them.
const MaxListedFailures = 10

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner and a progress bar.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for running campaigns.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numCampaigns int, out io.Writer) {
	DisplayProgress(wg, progressChan, numCampaigns, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct{}

// Verify interface compliance.
var _ orchestration.ResultPresenter = CLIResultPresenter{}

var summaryHeaders = []string{"Campaign", "Cases", "Passed", "Failed", "Duration", "Status"}

const statusColumn = 5

// PresentSummary renders one table row per campaign.
func (CLIResultPresenter) PresentSummary(reports []campaign.Report, out io.Writer) {
	fmt.Fprintf(out, "\n--- Campaign Summary ---\n")
	fmt.Fprintln(out, FormatSummaryTable(reports))
}

// FormatSummaryTable renders the summary table without performing I/O.
func FormatSummaryTable(reports []campaign.Report) string {
	theme := ui.GetCurrentTableTheme()
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.Circuit,
			format.FormatNumberString(strconv.Itoa(r.Cases)),
			format.FormatNumberString(strconv.Itoa(r.Passed)),
			strconv.Itoa(len(r.Failures)),
			format.FormatExecutionDuration(r.Duration),
			status(r),
		}
	}

	base := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(summaryHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return base.Bold(true).Foreground(theme.Header)
			}
			if col != statusColumn || row < 0 || row >= len(reports) {
				return base.Foreground(theme.Text)
			}
			switch r := reports[row]; {
			case r.Err != nil:
				return base.Foreground(theme.Warning)
			case !r.OK():
				return base.Foreground(theme.Error)
			default:
				return base.Foreground(theme.Success)
			}
		})
	return t.String()
}

func status(r campaign.Report) string {
	switch {
	case r.Err != nil:
		return "ABORTED"
	case !r.OK():
		return "FAIL"
	default:
		return "PASS"
	}
}

// PresentFailures lists the failed cases of a campaign with everything
// needed to reproduce them.
func (CLIResultPresenter) PresentFailures(r campaign.Report, out io.Writer) {
	fmt.Fprintf(out, "\n%s--- Failures: %s%s (%d of %d cases) ---\n",
		ui.ColorBold(), r.Circuit, ui.ColorReset(), len(r.Failures), r.Cases)
	if r.Err != nil {
		fmt.Fprintf(out, "  %saborted:%s %v\n", ui.ColorWarning(), ui.ColorReset(), r.Err)
	}
	for i, f := range r.Failures {
		if i == MaxListedFailures {
			fmt.Fprintf(out, "  ... and %d more\n", len(r.Failures)-MaxListedFailures)
			break
		}
		DisplayFailure(f, out)
	}
}

// DisplayFailure prints one failed case.
func DisplayFailure(f campaign.Failure, out io.Writer) {
	fmt.Fprintf(out, "  %s[%s]%s widths %v", ui.ColorError(), f.Regime, ui.ColorReset(), f.Widths)
	if f.Seed != 0 {
		fmt.Fprintf(out, " %sseed %d%s", ui.ColorSecondary(), f.Seed, ui.ColorReset())
	}
	fmt.Fprintln(out)
	if len(f.Inputs) > 0 {
		inputs := make([]string, len(f.Inputs))
		for i, v := range f.Inputs {
			inputs[i] = format.FormatBigInt(v, TruncationLimit, DisplayEdges)
		}
		fmt.Fprintf(out, "    inputs:   %s\n", strings.Join(inputs, ", "))
	}
	for i, d := range f.Distributions {
		fmt.Fprintf(out, "    input %d:  %s\n", i, format.TruncateMiddle(d, TruncationLimit, DisplayEdges))
	}
	switch {
	case f.Expected != "" || f.Actual != "":
		fmt.Fprintf(out, "    expected: %s%s%s\n", ui.ColorSuccess(),
			format.TruncateMiddle(f.Expected, TruncationLimit, DisplayEdges), ui.ColorReset())
		fmt.Fprintf(out, "    actual:   %s%s%s\n", ui.ColorError(),
			format.TruncateMiddle(f.Actual, TruncationLimit, DisplayEdges), ui.ColorReset())
	case f.Err != nil:
		fmt.Fprintf(out, "    error:    %v\n", f.Err)
	}
}

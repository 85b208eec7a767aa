// Package report renders campaign reports as a standalone HTML page of
// ECharts charts.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/agbru/qarithcheck/internal/campaign"
)

// Title is the page title.
const Title = "qarithcheck campaign report"

// Page builds the report page: cases per campaign split by outcome, wall
// time per campaign, and failed cases per sweep width and regime.
func Page(reports []campaign.Report) *components.Page {
	page := components.NewPage().SetPageTitle(Title)
	page.AddCharts(outcomeChart(reports), durationChart(reports), widthChart(reports))
	return page
}

// Render writes the report page to w.
func Render(w io.Writer, reports []campaign.Report) error {
	return Page(reports).Render(w)
}

// WriteHTML writes the report page to path, creating its directory.
func WriteHTML(path string, reports []campaign.Report) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Render(f, reports); err != nil {
		f.Close()
		return fmt.Errorf("render html: %w", err)
	}
	return f.Close()
}

func globalOptions(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
	}
}

func names(reports []campaign.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.Circuit
	}
	return out
}

func outcomeChart(reports []campaign.Report) *charts.Bar {
	passed := make([]opts.BarData, len(reports))
	failed := make([]opts.BarData, len(reports))
	total, bad := 0, 0
	for i, r := range reports {
		passed[i] = opts.BarData{Value: r.Passed}
		failed[i] = opts.BarData{Value: r.Cases - r.Passed}
		total += r.Cases
		bad += r.Cases - r.Passed
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions("Cases per campaign", fmt.Sprintf("%d cases, %d failed", total, bad))...)
	bar.SetXAxis(names(reports)).
		AddSeries("passed", passed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9ece6a"})).
		AddSeries("failed", failed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff4444"})).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "cases"}))
	return bar
}

func durationChart(reports []campaign.Report) *charts.Bar {
	ms := make([]opts.BarData, len(reports))
	for i, r := range reports {
		ms[i] = opts.BarData{Value: r.Duration.Milliseconds()}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions("Wall time per campaign (ms)", "")...)
	bar.SetXAxis(names(reports)).AddSeries("duration", ms)
	return bar
}

// widthChart plots failed cases against sweep width, one series per regime.
func widthChart(reports []campaign.Report) *charts.Bar {
	var widths []int
	failures := map[string]map[int]int{}
	var regimes []string
	for _, r := range reports {
		for _, w := range r.Widths {
			if !slices.Contains(widths, w.N) {
				widths = append(widths, w.N)
			}
			if failures[w.Regime] == nil {
				failures[w.Regime] = map[int]int{}
				regimes = append(regimes, w.Regime)
			}
			failures[w.Regime][w.N] += w.Cases - w.Passed
		}
	}
	slices.Sort(widths)
	slices.Sort(regimes)

	labels := make([]string, len(widths))
	for i, w := range widths {
		labels[i] = strconv.Itoa(w)
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions("Failed cases per width", "all campaigns")...)
	bar.SetXAxis(labels)
	for _, regime := range regimes {
		data := make([]opts.BarData, len(widths))
		for i, w := range widths {
			data[i] = opts.BarData{Value: failures[regime][w]}
		}
		bar.AddSeries(regime, data)
	}
	bar.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "regime"}))
	return bar
}

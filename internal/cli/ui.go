//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/qarithcheck/internal/format"
	"github.com/agbru/qarithcheck/internal/orchestration"
)

const (
	// TruncationLimit is the digit threshold from which a value is truncated
	// in the failure listing.
	TruncationLimit = 60
	// DisplayEdges specifies the number of digits kept at each end of a
	// truncated value.
	DisplayEdges = 20
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// It decouples DisplayProgress from a specific spinner implementation.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Same interval as ProgressRefreshRate to keep both in step.
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with the average progress of the running
// campaigns and an ETA. It drains progressChan until it is closed, prints
// the final bar and calls wg.Done.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numCampaigns int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numCampaigns)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(" " + format.FormatProgressBarWithETA(0, 0, ProgressBarWidth))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last orchestration.AggregatedProgress
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				avg := agg.CalculateAverage()
				fmt.Fprintf(out, "[%s] %5.1f%% in %s\n",
					format.ProgressBar(avg, ProgressBarWidth), avg*100,
					format.FormatExecutionDuration(agg.Elapsed()))
				return
			}
			last = agg.Update(update)
		case <-ticker.C:
			s.UpdateSuffix(" " + format.FormatProgressBarWithETA(last.AverageProgress, last.ETA, ProgressBarWidth))
		}
	}
}

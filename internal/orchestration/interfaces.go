package orchestration

import (
	"context"
	"io"
	"sync"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/engine"
)

// ProgressUpdate is the completion fraction of one campaign.
type ProgressUpdate struct {
	// CampaignIndex is the position of the campaign in the run.
	CampaignIndex int
	// Value is the completed fraction of the planned cases (0.0 to 1.0).
	Value float64
}

// SessionFactory opens one engine session for one campaign. release frees
// the underlying engine once the campaign is over; it may be nil.
type SessionFactory func(ctx context.Context) (session *engine.Session, release func() error, err error)

// ProgressReporter displays campaign progress. DisplayProgress runs in its
// own goroutine, drains progressChan until it is closed and then calls
// wg.Done.
type ProgressReporter interface {
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numCampaigns int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numCampaigns int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numCampaigns int, out io.Writer) {
	f(wg, progressChan, numCampaigns, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything. Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter renders campaign reports.
type ResultPresenter interface {
	// PresentSummary displays one line per campaign.
	PresentSummary(reports []campaign.Report, out io.Writer)
	// PresentFailures displays the failed cases of one campaign.
	PresentFailures(report campaign.Report, out io.Writer)
}

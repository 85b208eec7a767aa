package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/qarithcheck/internal/campaign"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// ProgressBufferMultiplier sizes the progress channel relative to the
// number of campaigns.
const ProgressBufferMultiplier = 5

// Options configures ExecuteCampaigns.
type Options struct {
	// Parallel is the number of campaigns run at once. Values below 1 mean 1.
	Parallel int
	// Runner options are applied to every campaign runner. Observers go in
	// Observer: the progress tracker occupies the runner's observer slot.
	Runner []campaign.Option
	// Observer is notified after every case of every campaign. It must be
	// safe for concurrent use when Parallel > 1.
	Observer campaign.Observer
	// OnReport is called with each finished report, from the campaign's
	// goroutine.
	OnReport func(campaign.Report)
}

// ExecuteCampaigns runs circuits, at most opts.Parallel at a time, each on
// a session of its own from factory. Reports are returned in circuit order.
// A failing campaign never stops the others; a canceled context ends every
// campaign at its next case.
func ExecuteCampaigns(ctx context.Context, circuits []campaign.Circuit, factory SessionFactory, opts Options, progressReporter ProgressReporter, out io.Writer) []campaign.Report {
	reports := make([]campaign.Report, len(circuits))
	progressChan := make(chan ProgressUpdate, len(circuits)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(circuits), out)

	var g errgroup.Group
	g.SetLimit(max(1, opts.Parallel))
	for i, c := range circuits {
		g.Go(func() error {
			reports[i] = runCampaign(ctx, i, c, factory, opts, progressChan)
			if opts.OnReport != nil {
				opts.OnReport(reports[i])
			}
			progressChan <- ProgressUpdate{CampaignIndex: i, Value: 1}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()
	return reports
}

func runCampaign(ctx context.Context, idx int, c campaign.Circuit, factory SessionFactory, opts Options, progressChan chan<- ProgressUpdate) campaign.Report {
	if err := ctx.Err(); err != nil {
		return campaign.Report{Circuit: c.Name, Err: err}
	}
	session, release, err := factory(ctx)
	if err != nil {
		return campaign.Report{Circuit: c.Name, Err: apperrors.EvaluatorError{Operation: "open", Cause: err}}
	}

	tracker := &progressTracker{index: idx, out: progressChan, next: opts.Observer}
	runnerOpts := append(append([]campaign.Option(nil), opts.Runner...), campaign.WithObserver(tracker))
	runner := campaign.NewRunner(session, runnerOpts...)
	tracker.planned = runner.Planned(c)

	rep := runner.Run(ctx, c)
	if release != nil {
		if err := release(); err != nil && rep.Err == nil {
			rep.Err = apperrors.EvaluatorError{Operation: "close", Cause: err}
		}
	}
	return rep
}

// progressTracker turns case notifications into progress updates and
// forwards them to the next observer. Updates are dropped rather than
// blocking the campaign when the channel is full.
type progressTracker struct {
	index   int
	planned int
	done    int
	out     chan<- ProgressUpdate
	next    campaign.Observer
}

func (p *progressTracker) ObserveCase(circuit, regime string, n int, ok bool, elapsed time.Duration) {
	if p.next != nil {
		p.next.ObserveCase(circuit, regime, n, ok, elapsed)
	}
	p.done++
	if p.planned <= 0 {
		return
	}
	select {
	case p.out <- ProgressUpdate{CampaignIndex: p.index, Value: min(1, float64(p.done)/float64(p.planned))}:
	default:
	}
}

// Summary totals a run.
type Summary struct {
	Campaigns int
	Passed    int
	Cases     int
	Failures  int
	Aborted   int
}

// Summarize totals reports.
func Summarize(reports []campaign.Report) Summary {
	var s Summary
	for _, r := range reports {
		s.Campaigns++
		s.Cases += r.Cases
		s.Failures += len(r.Failures)
		switch {
		case r.Err != nil:
			s.Aborted++
		case r.OK():
			s.Passed++
		}
	}
	return s
}

// severity orders exit codes: an interrupted run outranks a harness defect,
// which outranks an arithmetic mismatch, which outranks other failures.
var severity = map[int]int{
	apperrors.ExitSuccess:       0,
	apperrors.ExitErrorGeneric:  1,
	apperrors.ExitErrorMismatch: 2,
	apperrors.ExitErrorHarness:  3,
	apperrors.ExitErrorConfig:   4,
	apperrors.ExitErrorTimeout:  5,
	apperrors.ExitErrorCanceled: 6,
}

// ExitCode returns the most severe exit code among the reports.
func ExitCode(reports []campaign.Report) int {
	code := apperrors.ExitSuccess
	worse := func(c int) {
		if severity[c] > severity[code] {
			code = c
		}
	}
	for _, r := range reports {
		if r.Err != nil {
			worse(apperrors.ExitCodeFor(r.Err))
		}
		for _, f := range r.Failures {
			worse(apperrors.ExitCodeFor(f))
		}
	}
	return code
}

// AnalyzeCampaignResults presents the reports and returns the exit code of
// the run.
func AnalyzeCampaignResults(reports []campaign.Report, presenter ResultPresenter, out io.Writer) int {
	presenter.PresentSummary(reports, out)
	for _, r := range reports {
		if !r.OK() {
			presenter.PresentFailures(r, out)
		}
	}

	s := Summarize(reports)
	code := ExitCode(reports)
	if code == apperrors.ExitSuccess {
		fmt.Fprintf(out, "\nGlobal Status: Success. %d campaigns, %d cases, all passed.\n", s.Campaigns, s.Cases)
	} else {
		fmt.Fprintf(out, "\nGlobal Status: Failure. %d of %d campaigns passed, %d failed cases, %d aborted (exit %d).\n",
			s.Passed, s.Campaigns, s.Failures, s.Aborted, code)
	}
	return code
}

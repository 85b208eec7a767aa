package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/config"
	"github.com/agbru/qarithcheck/internal/engine"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/simulator"
)

func simulatorSessions(lib *simulator.Library) SessionFactory {
	return func(context.Context) (*engine.Session, func() error, error) {
		return engine.NewSession(simulator.New(lib)), nil, nil
	}
}

// smallCircuits returns built-in campaigns trimmed to quick sweeps.
func smallCircuits(t *testing.T, names ...string) []campaign.Circuit {
	t.Helper()
	reg := campaign.DefaultRegistry()
	var out []campaign.Circuit
	for _, name := range names {
		c, err := reg.Get(name)
		if err != nil {
			t.Fatal(err)
		}
		c.Widths = []int{2, 3, 8}
		c.Superposition = []int{3}
		if c.Shape.Kind != campaign.BinaryInPlace {
			c.Superposition = nil
		}
		out = append(out, c)
	}
	return out
}

// recordingReporter keeps every update it drains.
type recordingReporter struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (r *recordingReporter) DisplayProgress(wg *sync.WaitGroup, ch <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	for u := range ch {
		r.mu.Lock()
		r.updates = append(r.updates, u)
		r.mu.Unlock()
	}
}

// countingObserver counts cases; it is shared by concurrent campaigns.
type countingObserver struct{ cases atomic.Int64 }

func (o *countingObserver) ObserveCase(string, string, int, bool, time.Duration) { o.cases.Add(1) }

func TestExecuteCampaigns_AllPass(t *testing.T) {
	t.Parallel()
	circuits := smallCircuits(t, "add", "multiply", "increment")
	reporter := &recordingReporter{}
	obs := &countingObserver{}
	var finished atomic.Int32

	reports := ExecuteCampaigns(context.Background(), circuits, simulatorSessions(simulator.StandardLibrary()),
		Options{
			Parallel: 2,
			Runner:   []campaign.Option{campaign.WithSeed(11)},
			Observer: obs,
			OnReport: func(campaign.Report) { finished.Add(1) },
		}, reporter, io.Discard)

	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	total := 0
	for i, r := range reports {
		if r.Circuit != circuits[i].Name {
			t.Errorf("report %d is %q, want %q", i, r.Circuit, circuits[i].Name)
		}
		if !r.OK() {
			t.Errorf("%s failed: %v", r.Circuit, r.FirstError())
		}
		total += r.Cases
	}
	if got := obs.cases.Load(); got != int64(total) {
		t.Errorf("observer saw %d cases, reports count %d", got, total)
	}
	if finished.Load() != 3 {
		t.Errorf("OnReport called %d times, want 3", finished.Load())
	}

	final := map[int]bool{}
	for _, u := range reporter.updates {
		if u.Value < 0 || u.Value > 1 {
			t.Errorf("progress %v out of range", u.Value)
		}
		if u.Value == 1 {
			final[u.CampaignIndex] = true
		}
	}
	if len(final) != 3 {
		t.Errorf("completed campaigns in progress = %v, want all three", final)
	}
	if code := ExitCode(reports); code != apperrors.ExitSuccess {
		t.Errorf("ExitCode() = %d, want 0", code)
	}
}

func TestExecuteCampaigns_FailureIsolated(t *testing.T) {
	t.Parallel()
	circuits := smallCircuits(t, "add", "subtract")
	circuits[0].Op = simulator.OpXorAdd

	reports := ExecuteCampaigns(context.Background(), circuits, simulatorSessions(simulator.FaultyLibrary()),
		Options{}, NullProgressReporter{}, io.Discard)

	if reports[0].OK() {
		t.Error("the carry-less adder should fail")
	}
	if !reports[1].OK() {
		t.Errorf("subtract should pass: %v", reports[1].FirstError())
	}
	if code := ExitCode(reports); code != apperrors.ExitErrorMismatch {
		t.Errorf("ExitCode() = %d, want %d", code, apperrors.ExitErrorMismatch)
	}
}

func TestExecuteCampaigns_SessionErrors(t *testing.T) {
	t.Parallel()
	circuits := smallCircuits(t, "add", "increment")
	boom := errors.New("engine not found")
	var calls atomic.Int32
	factory := func(context.Context) (*engine.Session, func() error, error) {
		if calls.Add(1) == 1 {
			return nil, nil, boom
		}
		release := func() error { return errors.New("engine exited with status 1") }
		return engine.NewSession(simulator.New(simulator.StandardLibrary())), release, nil
	}

	reports := ExecuteCampaigns(context.Background(), circuits, factory, Options{}, NullProgressReporter{}, io.Discard)

	var open, closing apperrors.EvaluatorError
	if !errors.As(reports[0].Err, &open) || open.Operation != "open" || !errors.Is(reports[0].Err, boom) {
		t.Errorf("first report error = %v, want an open failure", reports[0].Err)
	}
	if !errors.As(reports[1].Err, &closing) || closing.Operation != "close" {
		t.Errorf("second report error = %v, want a close failure", reports[1].Err)
	}
	if reports[1].Cases == 0 {
		t.Error("the second campaign should have run before its release failed")
	}
	if code := ExitCode(reports); code != apperrors.ExitErrorGeneric {
		t.Errorf("ExitCode() = %d, want %d", code, apperrors.ExitErrorGeneric)
	}
}

func TestExecuteCampaigns_ParallelLimit(t *testing.T) {
	t.Parallel()
	circuits := smallCircuits(t, "add", "subtract", "increment", "multiply", "gcd")
	var active, peak atomic.Int32
	factory := func(context.Context) (*engine.Session, func() error, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return engine.NewSession(simulator.New(simulator.StandardLibrary())), func() error {
			active.Add(-1)
			return nil
		}, nil
	}

	ExecuteCampaigns(context.Background(), circuits, factory, Options{Parallel: 2}, NullProgressReporter{}, io.Discard)
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrent sessions = %d, want at most 2", p)
	}
}

func TestExecuteCampaigns_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	circuits := smallCircuits(t, "add", "multiply")
	done := make(chan []campaign.Report)
	go func() {
		done <- ExecuteCampaigns(ctx, circuits, simulatorSessions(simulator.StandardLibrary()),
			Options{Parallel: 2}, &recordingReporter{}, io.Discard)
	}()

	select {
	case reports := <-done:
		for _, r := range reports {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("%s: Err = %v, want context.Canceled", r.Circuit, r.Err)
			}
		}
		if code := ExitCode(reports); code != apperrors.ExitErrorCanceled {
			t.Errorf("ExitCode() = %d, want %d", code, apperrors.ExitErrorCanceled)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("DEADLOCK: ExecuteCampaigns did not return after cancellation")
	}
}

func TestExitCode_Severity(t *testing.T) {
	t.Parallel()
	mismatch := campaign.Failure{Err: apperrors.MismatchError{Circuit: "add"}}
	malformed := campaign.Failure{Err: apperrors.MalformedSuperpositionError{Stage: "reconstruction", Total: 0.5}}
	engineErr := campaign.Failure{Err: apperrors.EvaluatorError{Operation: "evaluate", Cause: errors.New("eof")}}
	tests := []struct {
		name    string
		reports []campaign.Report
		want    int
	}{
		{"empty", nil, apperrors.ExitSuccess},
		{"engine failure", []campaign.Report{{Failures: []campaign.Failure{engineErr}}}, apperrors.ExitErrorGeneric},
		{"mismatch beats engine failure", []campaign.Report{{Failures: []campaign.Failure{engineErr, mismatch}}}, apperrors.ExitErrorMismatch},
		{"harness beats mismatch", []campaign.Report{{Failures: []campaign.Failure{mismatch}}, {Failures: []campaign.Failure{malformed}}}, apperrors.ExitErrorHarness},
		{"timeout beats harness", []campaign.Report{{Failures: []campaign.Failure{malformed}}, {Err: context.DeadlineExceeded}}, apperrors.ExitErrorTimeout},
		{"cancel beats all", []campaign.Report{{Err: context.DeadlineExceeded}, {Err: context.Canceled}}, apperrors.ExitErrorCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCode(tt.reports); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// recordingPresenter records which reports were presented.
type recordingPresenter struct {
	summaries int
	failures  []string
}

func (p *recordingPresenter) PresentSummary([]campaign.Report, io.Writer) { p.summaries++ }
func (p *recordingPresenter) PresentFailures(r campaign.Report, _ io.Writer) {
	p.failures = append(p.failures, r.Circuit)
}

func TestAnalyzeCampaignResults(t *testing.T) {
	t.Parallel()
	reports := []campaign.Report{
		{Circuit: "add", Cases: 10, Passed: 10},
		{Circuit: "multiply", Cases: 10, Passed: 9, Failures: []campaign.Failure{{Err: apperrors.MismatchError{Circuit: "multiply"}}}},
	}
	p := &recordingPresenter{}
	var out bytes.Buffer

	code := AnalyzeCampaignResults(reports, p, &out)
	if code != apperrors.ExitErrorMismatch {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorMismatch)
	}
	if p.summaries != 1 || len(p.failures) != 1 || p.failures[0] != "multiply" {
		t.Errorf("presented summaries %d failures %v", p.summaries, p.failures)
	}
	if !strings.Contains(out.String(), "Global Status: Failure. 1 of 2 campaigns passed, 1 failed cases") {
		t.Errorf("unexpected status line: %q", out.String())
	}

	out.Reset()
	if code := AnalyzeCampaignResults(reports[:1], &recordingPresenter{}, &out); code != apperrors.ExitSuccess {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "Global Status: Success. 1 campaigns, 10 cases") {
		t.Errorf("unexpected status line: %q", out.String())
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	s := Summarize([]campaign.Report{
		{Cases: 4, Passed: 4},
		{Cases: 4, Passed: 3, Failures: []campaign.Failure{{}}},
		{Err: context.Canceled},
	})
	want := Summary{Campaigns: 3, Passed: 1, Cases: 8, Failures: 1, Aborted: 1}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
}

func TestCircuitsToRun(t *testing.T) {
	t.Parallel()
	reg := campaign.DefaultRegistry()

	t.Run("selection with overrides", func(t *testing.T) {
		t.Parallel()
		cfg := config.AppConfig{Circuits: []string{"multiply", "add"}, Widths: []int{2, 3}, Superposition: false}
		circuits, err := CircuitsToRun(cfg, reg)
		if err != nil {
			t.Fatalf("CircuitsToRun() error: %v", err)
		}
		if len(circuits) != 2 || circuits[0].Name != "multiply" || circuits[1].Name != "add" {
			t.Fatalf("circuits = %v", circuits)
		}
		for _, c := range circuits {
			if len(c.Widths) != 2 || c.Superposition != nil {
				t.Errorf("%s: widths %v superposition %v", c.Name, c.Widths, c.Superposition)
			}
		}
		if add, _ := reg.Get("add"); len(add.Widths) == 2 {
			t.Error("overrides must not leak into the registry")
		}
	})

	t.Run("all keeps declared sweeps", func(t *testing.T) {
		t.Parallel()
		circuits, err := CircuitsToRun(config.AppConfig{Circuits: []string{"all"}, Superposition: true}, reg)
		if err != nil {
			t.Fatalf("CircuitsToRun() error: %v", err)
		}
		if len(circuits) != len(reg.List()) {
			t.Errorf("got %d circuits, want %d", len(circuits), len(reg.List()))
		}
	})

	t.Run("unknown campaign", func(t *testing.T) {
		t.Parallel()
		_, err := CircuitsToRun(config.AppConfig{Circuits: []string{"teleport"}}, reg)
		if apperrors.ExitCodeFor(err) != apperrors.ExitErrorConfig {
			t.Errorf("error = %v, want a configuration error", err)
		}
	})

	t.Run("unsupported width", func(t *testing.T) {
		t.Parallel()
		_, err := CircuitsToRun(config.AppConfig{Circuits: []string{"modexp"}, Widths: []int{1}}, reg)
		if apperrors.ExitCodeFor(err) != apperrors.ExitErrorConfig {
			t.Errorf("error = %v, want a configuration error", err)
		}
	})
}

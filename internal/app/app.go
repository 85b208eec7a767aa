// Package app wires configuration, engine backends, campaign orchestration
// and outputs into the qarithcheck command.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/cli"
	"github.com/agbru/qarithcheck/internal/config"
	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/engine/process"
	"github.com/agbru/qarithcheck/internal/engine/qsharp"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
	"github.com/agbru/qarithcheck/internal/logging"
	"github.com/agbru/qarithcheck/internal/metrics"
	"github.com/agbru/qarithcheck/internal/orchestration"
	"github.com/agbru/qarithcheck/internal/report"
	"github.com/agbru/qarithcheck/internal/server"
	"github.com/agbru/qarithcheck/internal/simulator"
	"github.com/agbru/qarithcheck/internal/ui"
)

// Application represents the qarithcheck application instance.
type Application struct {
	Config    config.AppConfig
	Catalog   campaign.Catalog
	Library   *simulator.Library
	ErrWriter io.Writer

	logger logging.Logger
	now    func() time.Time
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithCatalog replaces the built-in campaigns.
func WithCatalog(c campaign.Catalog) AppOption {
	return func(a *Application) { a.Catalog = c }
}

// WithLibrary replaces the operation library of the simulator backend.
func WithLibrary(l *simulator.Library) AppOption {
	return func(a *Application) { a.Library = l }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}

	// Campaign names do not depend on the namespace, so the default
	// registry validates the selection before the namespace is known.
	available := campaign.DefaultRegistry().List()
	if app.Catalog != nil {
		available = app.Catalog.List()
	}

	programName := "qarithcheck"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, available)
	if err != nil {
		if !IsHelpError(err) {
			fmt.Fprintf(errWriter, "Configuration error: %v\n", err)
		}
		return nil, err
	}
	if cfg.Backend == config.BackendSimulator && app.Library == nil && cfg.Namespace != simulator.Namespace {
		err := apperrors.NewConfigError("the simulator backend implements namespace %q, not %q", simulator.Namespace, cfg.Namespace)
		fmt.Fprintf(errWriter, "Configuration error: %v\n", err)
		return nil, err
	}
	if app.Catalog == nil {
		app.Catalog = campaign.BuiltinRegistry(cfg.Namespace)
	}
	if app.Library == nil {
		app.Library = simulator.StandardLibrary()
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)
	if a.Config.List {
		cli.DisplayCircuitList(a.Catalog, out)
		return apperrors.ExitSuccess
	}
	a.setupLogging()
	return a.runCampaigns(ctx, out)
}

func (a *Application) setupLogging() {
	switch {
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	w := zerolog.ConsoleWriter{Out: a.ErrWriter, NoColor: a.Config.NoColor, TimeFormat: time.TimeOnly}
	a.logger = logging.NewLogger(w, "qarithcheck")
}

func (a *Application) runCampaigns(ctx context.Context, out io.Writer) int {
	started := a.now()
	if a.Config.Seed == 0 {
		a.Config.Seed = started.UnixNano()
	}

	circuits, err := orchestration.CircuitsToRun(a.Config, a.Catalog)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	m := metrics.New()
	if a.Config.MetricsAddr != "" {
		srv := server.New(m.Handler(), server.WithLogger(a.logger))
		if err := srv.Start(a.Config.MetricsAddr); err != nil {
			fmt.Fprintf(a.ErrWriter, "Metrics server error: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				a.logger.Error("metrics server shutdown", err)
			}
		}()
	}

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, circuits, out)
	}
	a.logger.Info("run started",
		logging.Int64("seed", a.Config.Seed),
		logging.Int("campaigns", len(circuits)),
		logging.String("backend", a.Config.Backend))

	var progressReporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		progressReporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	opts := orchestration.Options{
		Parallel: a.Config.Parallel,
		Runner: []campaign.Option{
			campaign.WithStrategy(a.Config.ToStrategy()),
			campaign.WithSeed(a.Config.Seed),
			campaign.WithTolerance(a.Config.Tolerance),
			campaign.WithLogger(a.logger),
			campaign.WithTracer(otel.Tracer(campaign.TracerName)),
			campaign.WithCheckObserver(m),
		},
		Observer: m,
		OnReport: m.ObserveCampaign,
	}
	reports := orchestration.ExecuteCampaigns(ctx, circuits, a.sessionFactory(), opts, progressReporter, progressOut)

	var code int
	if a.Config.Quiet {
		cli.DisplayQuietSummary(reports, out)
		code = orchestration.ExitCode(reports)
	} else {
		code = orchestration.AnalyzeCampaignResults(reports, cli.CLIResultPresenter{}, out)
	}

	info := cli.RunInfo{
		Seed:      a.Config.Seed,
		Backend:   a.Config.Backend,
		Namespace: a.Config.Namespace,
		Started:   started,
		ExitCode:  code,
	}
	if err := a.writeOutputs(info, reports, m, out); err != nil {
		fmt.Fprintf(a.ErrWriter, "Output error: %v\n", err)
		if code == apperrors.ExitSuccess {
			code = apperrors.ExitErrorGeneric
		}
	}
	return code
}

func (a *Application) writeOutputs(info cli.RunInfo, reports []campaign.Report, m *metrics.Metrics, out io.Writer) error {
	var errs []error
	write := func(kind, path string, fn func() error) {
		if path == "" {
			return
		}
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			return
		}
		if !a.Config.Quiet {
			cli.DisplaySaved(kind, path, out)
		}
	}
	write("JSON report", a.Config.ReportFile, func() error { return cli.WriteJSONReport(a.Config.ReportFile, info, reports) })
	write("HTML report", a.Config.HTMLReport, func() error { return report.WriteHTML(a.Config.HTMLReport, reports) })
	write("Metrics", a.Config.MetricsFile, func() error { return m.WriteTextfile(a.Config.MetricsFile) })
	return errors.Join(errs...)
}

// sessionFactory opens one session per campaign on the configured backend.
func (a *Application) sessionFactory() orchestration.SessionFactory {
	if a.Config.Backend == config.BackendProcess {
		name, args := a.Config.EngineArgs()
		renderer := qsharp.NewRenderer(qsharp.WithHelpers(a.Config.Helpers))
		return func(ctx context.Context) (*engine.Session, func() error, error) {
			ev, err := process.Start(ctx, name, args,
				process.WithRenderer(renderer),
				process.WithLogger(a.logger),
				process.WithStderr(a.ErrWriter))
			if err != nil {
				return nil, nil, err
			}
			return engine.NewSession(ev, engine.WithLogger(a.logger)), ev.Close, nil
		}
	}
	return func(context.Context) (*engine.Session, func() error, error) {
		ev := simulator.New(a.Library, simulator.WithLogger(a.logger))
		return engine.NewSession(ev, engine.WithLogger(a.logger)), nil, nil
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

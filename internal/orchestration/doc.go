// Package orchestration runs several verification campaigns, each on its own
// engine session, and aggregates their reports into an exit status. It is
// decoupled from presentation through the ProgressReporter and
// ResultPresenter interfaces.
package orchestration

package orchestration

import (
	"time"

	"github.com/agbru/qarithcheck/internal/format"
)

// ProgressAggregator aggregates the progress of concurrent campaigns over
// format.ProgressWithETA.
type ProgressAggregator struct {
	state        *format.ProgressWithETA
	numCampaigns int
}

// NewProgressAggregator returns nil if numCampaigns <= 0.
func NewProgressAggregator(numCampaigns int) *ProgressAggregator {
	if numCampaigns <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:        format.NewProgressWithETA(numCampaigns),
		numCampaigns: numCampaigns,
	}
}

// AggregatedProgress is the state after one update.
type AggregatedProgress struct {
	CampaignIndex int
	// Value is the raw progress of the updated campaign.
	Value float64
	// AverageProgress is the mean over all campaigns.
	AverageProgress float64
	ETA             time.Duration
}

// Update processes one update.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	avg, eta := a.state.UpdateWithETA(update.CampaignIndex, update.Value)
	return AggregatedProgress{
		CampaignIndex:   update.CampaignIndex,
		Value:           update.Value,
		AverageProgress: avg,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// Elapsed returns the time since the aggregator was created.
func (a *ProgressAggregator) Elapsed() time.Duration {
	return a.state.Elapsed()
}

// NumCampaigns returns the number of campaigns being tracked.
func (a *ProgressAggregator) NumCampaigns() int {
	return a.numCampaigns
}

// DrainChannel reads all updates until the channel is closed.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}

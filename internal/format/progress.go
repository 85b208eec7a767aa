package format

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// maxETA caps estimates produced from very slow rates.
const maxETA = 24 * time.Hour

// rateSmoothing is the weight of the latest rate sample in the moving average.
const rateSmoothing = 0.3

// ProgressState holds the completion fraction of several concurrent
// campaigns and averages them.
type ProgressState struct {
	progresses   []float64
	numCampaigns int
}

// NewProgressState tracks numCampaigns campaigns, all at zero.
func NewProgressState(numCampaigns int) *ProgressState {
	return &ProgressState{
		progresses:   make([]float64, numCampaigns),
		numCampaigns: numCampaigns,
	}
}

// Update records the completion fraction of one campaign, clamped to
// [0, 1]. Unknown indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index < 0 || index >= len(ps.progresses) {
		return
	}
	ps.progresses[index] = math.Min(1, math.Max(0, value))
}

// CalculateAverage returns the mean completion fraction.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numCampaigns == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numCampaigns)
}

// ProgressWithETA extends ProgressState with a smoothed progress rate from
// which the remaining time is estimated. It is safe for concurrent use.
type ProgressWithETA struct {
	*ProgressState
	mu           sync.Mutex
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // fraction per second
}

// NewProgressWithETA tracks numCampaigns campaigns starting now.
func NewProgressWithETA(numCampaigns int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numCampaigns),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records one campaign's progress and returns the average
// progress and the estimated remaining time.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ProgressState.Update(index, value)
	avg := p.ProgressState.CalculateAverage()

	now := time.Now()
	if dt := now.Sub(p.lastUpdate).Seconds(); dt > 0 && avg > p.lastProgress {
		rate := (avg - p.lastProgress) / dt
		if p.progressRate == 0 {
			p.progressRate = rate
		} else {
			p.progressRate = rateSmoothing*rate + (1-rateSmoothing)*p.progressRate
		}
		p.lastUpdate = now
		p.lastProgress = avg
	}
	return avg, p.eta(avg)
}

// CalculateAverage returns the mean completion fraction.
func (p *ProgressWithETA) CalculateAverage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ProgressState.CalculateAverage()
}

// Update records one campaign's progress without refreshing the rate.
func (p *ProgressWithETA) Update(index int, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ProgressState.Update(index, value)
}

// GetETA returns the current estimate, 0 when none is available.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eta(p.ProgressState.CalculateAverage())
}

// Elapsed returns the time since tracking started.
func (p *ProgressWithETA) Elapsed() time.Duration { return time.Since(p.startTime) }

func (p *ProgressWithETA) eta(avg float64) time.Duration {
	if p.progressRate <= 0 || avg >= 1 {
		return 0
	}
	secs := (1 - avg) / p.progressRate
	if secs > maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(secs * float64(time.Second))
}

// ProgressBar renders a bar of length cells filled to progress.
func ProgressBar(progress float64, length int) string {
	progress = math.Min(1, math.Max(0, progress))
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

// FormatProgressBarWithETA renders "[bar] 42.0% ETA: 3s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), math.Min(1, math.Max(0, progress))*100, FormatETA(eta))
}

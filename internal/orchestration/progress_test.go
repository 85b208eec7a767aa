package orchestration

import "testing"

func TestNewProgressAggregator(t *testing.T) {
	t.Parallel()
	if agg := NewProgressAggregator(3); agg == nil || agg.NumCampaigns() != 3 {
		t.Fatalf("NewProgressAggregator(3) = %v", agg)
	}
	for _, n := range []int{0, -1} {
		if agg := NewProgressAggregator(n); agg != nil {
			t.Errorf("NewProgressAggregator(%d) should be nil", n)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(2)

	ap := agg.Update(ProgressUpdate{CampaignIndex: 0, Value: 0.5})
	if ap.CampaignIndex != 0 || ap.Value != 0.5 {
		t.Errorf("update = %+v", ap)
	}
	if ap.AverageProgress != 0.25 {
		t.Errorf("AverageProgress = %f, want 0.25", ap.AverageProgress)
	}
	if ap = agg.Update(ProgressUpdate{CampaignIndex: 1, Value: 0.5}); ap.AverageProgress != 0.5 {
		t.Errorf("AverageProgress = %f, want 0.5", ap.AverageProgress)
	}
	if avg := agg.CalculateAverage(); avg != 0.5 {
		t.Errorf("CalculateAverage() = %f, want 0.5", avg)
	}
}

func TestProgressAggregator_InitialETA(t *testing.T) {
	t.Parallel()
	if eta := NewProgressAggregator(1).GetETA(); eta != 0 {
		t.Errorf("initial ETA = %v, want 0", eta)
	}
}

func TestProgressAggregator_Elapsed(t *testing.T) {
	t.Parallel()
	a := NewProgressAggregator(2)
	first := a.Elapsed()
	if first < 0 || a.Elapsed() < first {
		t.Error("elapsed time should be non-negative and monotonic")
	}
	if a.NumCampaigns() != 2 {
		t.Errorf("NumCampaigns() = %d", a.NumCampaigns())
	}
}

func TestDrainChannel(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 3)
	ch <- ProgressUpdate{CampaignIndex: 0, Value: 0.1}
	ch <- ProgressUpdate{CampaignIndex: 0, Value: 0.2}
	close(ch)
	DrainChannel(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be drained")
	}
}

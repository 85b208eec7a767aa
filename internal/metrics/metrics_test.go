package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/protocol"
	"github.com/agbru/qarithcheck/internal/simulator"
	"github.com/agbru/qarithcheck/internal/sysmon"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ campaign.Observer = (*Metrics)(nil)
	_ protocol.Observer = (*Metrics)(nil)
)

func TestMetrics_ObserveCase(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveCase("add", "exhaustive", 3, true, time.Millisecond)
	m.ObserveCase("add", "exhaustive", 3, true, time.Millisecond)
	m.ObserveCase("add", "random", 8, false, time.Millisecond)

	if got := testutil.ToFloat64(m.cases.WithLabelValues("add", "exhaustive", "pass")); got != 2 {
		t.Errorf("passed exhaustive cases = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cases.WithLabelValues("add", "random", "fail")); got != 1 {
		t.Errorf("failed random cases = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.caseDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestMetrics_ObserveCheck(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveCheck("binary-in-place", simulator.OpAdd, []int{4, 4}, true, time.Millisecond)
	if got := testutil.ToFloat64(m.checks.WithLabelValues("binary-in-place", "Arith.Add", "pass")); got != 1 {
		t.Errorf("checks = %v, want 1", got)
	}
}

func TestMetrics_ObserveCampaign(t *testing.T) {
	t.Parallel()
	m := New()
	m.sample = func() sysmon.Stats { return sysmon.Stats{CPUPercent: 12.5, MemPercent: 40} }
	m.ObserveCampaign(campaign.Report{Circuit: "add", Cases: 4, Passed: 4, Duration: 2 * time.Second})
	m.ObserveCampaign(campaign.Report{Circuit: "multiply", Cases: 4, Passed: 3, Failures: []campaign.Failure{{}}})
	m.ObserveCampaign(campaign.Report{Circuit: "divide", Err: errors.New("canceled")})

	for status, want := range map[string]float64{"pass": 1, "fail": 1, "aborted": 1} {
		if got := testutil.ToFloat64(m.campaigns.WithLabelValues(status)); got != want {
			t.Errorf("campaigns{result=%q} = %v, want %v", status, got, want)
		}
	}
	if got := testutil.ToFloat64(m.campaignDuration.WithLabelValues("add")); got != 2 {
		t.Errorf("duration of add = %v, want 2", got)
	}
	if testutil.ToFloat64(m.heapAlloc) == 0 {
		t.Error("heap gauge should be sampled")
	}
	if testutil.ToFloat64(m.systemCPU) != 12.5 || testutil.ToFloat64(m.systemMemory) != 40 {
		t.Error("system gauges should hold the last sample")
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveCase("add", "random", 8, true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`qarith_cases_total{circuit="add",regime="random",result="pass"} 1`, "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition should contain %q", want)
		}
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveCase("subtract", "exhaustive", 2, true, time.Millisecond)
	path := filepath.Join(t.TempDir(), "qarith.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `qarith_cases_total{circuit="subtract",regime="exhaustive",result="pass"} 1`) {
		t.Errorf("textfile misses the case counter:\n%s", data)
	}
}

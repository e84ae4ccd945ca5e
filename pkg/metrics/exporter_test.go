package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/viewmodel"
)

type staticSource struct {
	vm viewmodel.ViewModel
	at time.Time
}

func (s staticSource) Snapshot() (viewmodel.ViewModel, time.Time) {
	return s.vm, s.at
}

func TestCollectSnapshot(t *testing.T) {
	vm := viewmodel.ViewModel{
		Status: viewmodel.Status{Loaded: true, ClockHz: 750000000, CoreCount: 4, TotalMemoryKiB: 1536},
		Counts: viewmodel.Counts{Total: 4, Bound: 2, Unbound: 1, Other: 1},
	}
	e := NewExporter(staticSource{vm: vm, at: time.Unix(1700000000, 0)})

	expected := `
# HELP npustat_ppe_entries PPE flow entries by binding state
# TYPE npustat_ppe_entries gauge
npustat_ppe_entries{state="bound"} 2
npustat_ppe_entries{state="other"} 1
npustat_ppe_entries{state="unbound"} 1
# HELP npustat_npu_loaded Whether the NPU firmware is loaded (1) or not (0)
# TYPE npustat_npu_loaded gauge
npustat_npu_loaded 1
# HELP npustat_reserved_memory_kib Total memory reserved for the NPU in KiB
# TYPE npustat_reserved_memory_kib gauge
npustat_reserved_memory_kib 1536
`
	err := testutil.CollectAndCompare(e, strings.NewReader(expected),
		"npustat_ppe_entries", "npustat_npu_loaded", "npustat_reserved_memory_kib")
	if err != nil {
		t.Error(err)
	}
}

func TestObserverCounters(t *testing.T) {
	e := NewExporter(nil)
	e.CycleStarted(engine.TriggerPoll)
	e.CycleStarted(engine.TriggerPoll)
	e.CycleStarted(engine.TriggerManual)
	e.FetchFailed(engine.ResourceStatus)
	e.CycleDiscarded(engine.TriggerPoll)

	if got := testutil.ToFloat64(e.syncCycles.WithLabelValues("poll")); got != 2 {
		t.Errorf("poll cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.fetchFailures.WithLabelValues("status")); got != 1 {
		t.Errorf("status failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.staleCycles); got != 1 {
		t.Errorf("stale cycles = %v, want 1", got)
	}

	// A nil source still yields the engine metrics.
	if n := testutil.CollectAndCount(e, "npustat_sync_cycles_total"); n != 2 {
		t.Errorf("sync cycle series = %d, want 2", n)
	}
}

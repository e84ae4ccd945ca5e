package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/viewmodel"
)

// Source yields the view model applied last.
type Source interface {
	Snapshot() (viewmodel.ViewModel, time.Time)
}

// Exporter exposes the latest NPU snapshot and the sync engine's cycle
// counters as Prometheus metrics. It also serves as the engine Observer.
type Exporter struct {
	src Source

	// NPU metrics
	npuLoaded         prometheus.Gauge
	npuClockHz        prometheus.Gauge
	npuCores          prometheus.Gauge
	reservedMemoryKiB prometheus.Gauge
	memoryRegions     prometheus.Gauge
	offloadPackets    prometheus.Gauge
	offloadBytes      prometheus.Gauge
	ppeEntries        *prometheus.GaugeVec
	lastUpdate        prometheus.Gauge

	// Engine metrics
	syncCycles    *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	staleCycles   prometheus.Counter
	uptimeSeconds prometheus.Gauge

	startTime time.Time
}

// NewExporter creates an exporter. SetSource must be called before the
// first scrape when src is nil.
func NewExporter(src Source) *Exporter {
	return &Exporter{
		src:       src,
		startTime: time.Now(),

		npuLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_npu_loaded",
			Help: "Whether the NPU firmware is loaded (1) or not (0)",
		}),
		npuClockHz: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_npu_clock_hz",
			Help: "NPU core clock in hertz, 0 when unknown",
		}),
		npuCores: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_npu_cores",
			Help: "Number of NPU cores",
		}),
		reservedMemoryKiB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_reserved_memory_kib",
			Help: "Total memory reserved for the NPU in KiB",
		}),
		memoryRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_memory_regions",
			Help: "Number of reserved NPU memory regions",
		}),
		offloadPackets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_offload_packets",
			Help: "Packets handled by the NPU offload path",
		}),
		offloadBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_offload_bytes",
			Help: "Bytes handled by the NPU offload path",
		}),
		ppeEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "npustat_ppe_entries",
				Help: "PPE flow entries by binding state",
			},
			[]string{"state"}, // "bound", "unbound" or "other"
		),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_last_update_timestamp_seconds",
			Help: "Unix time of the last applied sync cycle",
		}),

		syncCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "npustat_sync_cycles_total",
				Help: "Sync cycles started, by trigger",
			},
			[]string{"trigger"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "npustat_fetch_failures_total",
				Help: "Backend calls that failed and were replaced by a placeholder",
			},
			[]string{"resource"},
		),
		staleCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "npustat_stale_cycles_total",
			Help: "Sync results discarded because a newer cycle was already applied",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "npustat_uptime_seconds",
			Help: "npustat uptime in seconds",
		}),
	}
}

// SetSource sets the snapshot source. The exporter is usually created
// before the engine, since it is the engine's observer.
func (e *Exporter) SetSource(src Source) {
	e.src = src
}

// CycleStarted implements engine.Observer
func (e *Exporter) CycleStarted(trigger engine.Trigger) {
	e.syncCycles.WithLabelValues(string(trigger)).Inc()
}

// FetchFailed implements engine.Observer
func (e *Exporter) FetchFailed(resource engine.Resource) {
	e.fetchFailures.WithLabelValues(string(resource)).Inc()
}

// CycleDiscarded implements engine.Observer
func (e *Exporter) CycleDiscarded(engine.Trigger) {
	e.staleCycles.Inc()
}

// Describe implements prometheus.Collector
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	e.npuLoaded.Describe(ch)
	e.npuClockHz.Describe(ch)
	e.npuCores.Describe(ch)
	e.reservedMemoryKiB.Describe(ch)
	e.memoryRegions.Describe(ch)
	e.offloadPackets.Describe(ch)
	e.offloadBytes.Describe(ch)
	e.ppeEntries.Describe(ch)
	e.lastUpdate.Describe(ch)

	e.syncCycles.Describe(ch)
	e.fetchFailures.Describe(ch)
	e.staleCycles.Describe(ch)
	e.uptimeSeconds.Describe(ch)
}

// Collect implements prometheus.Collector
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e.src != nil {
		vm, updated := e.src.Snapshot()
		s := vm.Status

		loaded := 0.0
		if s.Loaded {
			loaded = 1
		}
		e.npuLoaded.Set(loaded)
		e.npuClockHz.Set(float64(s.ClockHz))
		e.npuCores.Set(float64(s.CoreCount))
		e.reservedMemoryKiB.Set(s.TotalMemoryKiB)
		e.memoryRegions.Set(float64(len(s.MemoryRegions)))
		e.offloadPackets.Set(float64(s.OffloadPackets))
		e.offloadBytes.Set(float64(s.OffloadBytes))

		e.ppeEntries.WithLabelValues("bound").Set(float64(vm.Counts.Bound))
		e.ppeEntries.WithLabelValues("unbound").Set(float64(vm.Counts.Unbound))
		e.ppeEntries.WithLabelValues("other").Set(float64(vm.Counts.Other))

		if !updated.IsZero() {
			e.lastUpdate.Set(float64(updated.Unix()))
		}
	}

	// Uptime
	e.uptimeSeconds.Set(time.Since(e.startTime).Seconds())

	e.npuLoaded.Collect(ch)
	e.npuClockHz.Collect(ch)
	e.npuCores.Collect(ch)
	e.reservedMemoryKiB.Collect(ch)
	e.memoryRegions.Collect(ch)
	e.offloadPackets.Collect(ch)
	e.offloadBytes.Collect(ch)
	e.ppeEntries.Collect(ch)
	e.lastUpdate.Collect(ch)

	e.syncCycles.Collect(ch)
	e.fetchFailures.Collect(ch)
	e.staleCycles.Collect(ch)
	e.uptimeSeconds.Collect(ch)
}

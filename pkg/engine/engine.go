// Package engine keeps the NPU panel in sync with the backend: it loads
// both payloads, renders the panel once and patches it on every manual
// refresh or poll tick.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/model"
	"github.com/kisy/npustat/pkg/surface"
	"github.com/kisy/npustat/pkg/viewmodel"
)

// DefaultInterval is the poll period of the panel.
const DefaultInterval = 10 * time.Second

var (
	ErrNotMounted  = errors.New("panel not mounted")
	ErrRefreshBusy = errors.New("refresh already in progress")
)

// Fetcher is the backend collaborator. Both calls take no arguments.
type Fetcher interface {
	Status(ctx context.Context) (model.DeviceStatus, error)
	Entries(ctx context.Context) (model.PpeEntries, error)
}

// Resource names a backend call, for logging and metrics.
type Resource string

const (
	ResourceStatus  Resource = "status"
	ResourceEntries Resource = "entries"
)

// Trigger names what started a sync cycle.
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerManual  Trigger = "manual"
	TriggerPoll    Trigger = "poll"
)

// Observer is notified about cycle bookkeeping. All methods may be called
// from several goroutines.
type Observer interface {
	CycleStarted(trigger Trigger)
	FetchFailed(resource Resource)
	CycleDiscarded(trigger Trigger)
}

type nopObserver struct{}

func (nopObserver) CycleStarted(Trigger)   {}
func (nopObserver) FetchFailed(Resource)   {}
func (nopObserver) CycleDiscarded(Trigger) {}

// Data is the combined result of one load. It is never a failure: a failed
// fetch leaves its half at the zero value.
type Data struct {
	Status  model.DeviceStatus
	Entries model.PpeEntries
}

// Options configure an Engine. Zero values pick defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration // per fetch; 0 means only the caller's context
	Logger   logrus.FieldLogger
	Observer Observer
}

type Engine struct {
	fetcher  Fetcher
	tr       i18n.Func
	interval time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger
	observer Observer

	mu         sync.Mutex
	surface    *surface.Surface
	view       viewmodel.ViewModel
	updated    time.Time
	nextGen    uint64
	appliedGen uint64
	refreshing bool
}

func New(fetcher Fetcher, tr i18n.Func, opts Options) *Engine {
	if tr == nil {
		tr = i18n.Identity
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Engine{
		fetcher:  fetcher,
		tr:       tr,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		log:      opts.Logger,
		observer: opts.Observer,
	}
}

// Interval returns the poll period.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Tr returns the message lookup used for every label.
func (e *Engine) Tr() i18n.Func {
	return e.tr
}

// Load fetches status and entries concurrently. A failed call is logged and
// replaced with its empty placeholder.
func (e *Engine) Load(ctx context.Context) Data {
	var data Data
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ctx, cancel := e.fetchContext(gctx)
		defer cancel()
		status, err := e.fetcher.Status(ctx)
		if err != nil {
			e.log.WithError(err).Warn("Failed to get NPU status")
			e.observer.FetchFailed(ResourceStatus)
			return nil
		}
		data.Status = status
		return nil
	})

	g.Go(func() error {
		ctx, cancel := e.fetchContext(gctx)
		defer cancel()
		entries, err := e.fetcher.Entries(ctx)
		if err != nil {
			e.log.WithError(err).Warn("Failed to get PPE entries")
			e.observer.FetchFailed(ResourceEntries)
			return nil
		}
		data.Entries = entries
		return nil
	})

	_ = g.Wait() // both goroutines swallow their errors
	if data.Entries.Entries == nil {
		data.Entries.Entries = []model.FlowEntry{}
	}
	return data
}

func (e *Engine) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// Mount performs the initial load and renders the panel. The poll schedule
// must not start before Mount returns.
func (e *Engine) Mount(ctx context.Context) *surface.Surface {
	gen := e.begin(TriggerInitial)
	data := e.Load(ctx)
	vm := viewmodel.Build(data.Status, data.Entries)
	s := renderView(vm, e.tr)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = s
	e.view = vm
	e.updated = time.Now()
	e.appliedGen = gen
	e.log.WithFields(logrus.Fields{
		"entries": vm.Counts.Total,
		"loaded":  vm.Status.Loaded,
	}).Info("Panel mounted")
	return s
}

// Surface returns the mounted panel, or nil before Mount.
func (e *Engine) Surface() *surface.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// Snapshot returns the view model applied last and when it was applied.
func (e *Engine) Snapshot() (viewmodel.ViewModel, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view, e.updated
}

// Refreshing reports whether a manual refresh is in flight.
func (e *Engine) Refreshing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshing
}

// Refresh runs one manual cycle. The refresh control is disabled and shows
// the busy label for the duration; a second Refresh meanwhile is rejected
// with ErrRefreshBusy.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.surface == nil {
		e.mu.Unlock()
		return ErrNotMounted
	}
	if e.refreshing {
		e.mu.Unlock()
		return ErrRefreshBusy
	}
	e.refreshing = true
	s := e.surface
	e.mu.Unlock()

	s.Patch(func(tx *surface.Tx) {
		tx.SetAttr(IDRefresh, "disabled", "disabled")
		tx.SetText(IDRefresh, e.tr("Refreshing..."))
	})

	defer func() {
		s.Patch(func(tx *surface.Tx) {
			tx.SetAttr(IDRefresh, "disabled", "")
			tx.SetText(IDRefresh, e.tr("Manual Refresh"))
		})
		e.mu.Lock()
		e.refreshing = false
		e.mu.Unlock()
	}()

	return e.cycle(ctx, TriggerManual)
}

// Poll runs one poll cycle.
func (e *Engine) Poll(ctx context.Context) error {
	return e.cycle(ctx, TriggerPoll)
}

// Run polls every interval until ctx is done. Each tick runs in its own
// goroutine so a slow backend never stretches the schedule.
func (e *Engine) Run(ctx context.Context) error {
	if e.Surface() == nil {
		return ErrNotMounted
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := e.Poll(ctx); err != nil {
					e.log.WithError(err).Debug("Poll cycle not applied")
				}
			}()
		case <-ctx.Done():
			return nil
		}
	}
}

func (e *Engine) begin(trigger Trigger) uint64 {
	e.observer.CycleStarted(trigger)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextGen++
	return e.nextGen
}

func (e *Engine) cycle(ctx context.Context, trigger Trigger) error {
	if e.Surface() == nil {
		return ErrNotMounted
	}
	gen := e.begin(trigger)
	data := e.Load(ctx)
	vm := viewmodel.Build(data.Status, data.Entries)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen < e.appliedGen {
		// A cycle that started later already landed; this result is stale.
		e.observer.CycleDiscarded(trigger)
		e.log.WithFields(logrus.Fields{
			"trigger":    trigger,
			"generation": gen,
			"applied":    e.appliedGen,
		}).Debug("Discarding stale sync result")
		return nil
	}
	applyView(e.surface, vm, e.tr)
	e.view = vm
	e.updated = time.Now()
	e.appliedGen = gen
	return nil
}

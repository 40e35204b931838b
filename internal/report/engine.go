// Package report produces fleet-wide sensor reports: one outcome row per
// requested vehicle, fetched under a bounded concurrency cap, assembled in
// input order regardless of completion order.
package report

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/metrics"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
	"github.com/fleetpulse-io/fleetpulse/pkg/log"
)

const (
	// engineActiveThreshold models engine-on detection from engine-speed
	// samples: a window whose maximum exceeds this is counted as active.
	engineActiveThreshold = 100.0

	// progressStep is how many completed fetches pass between progress
	// notifications, by absolute count.
	progressStep = 10

	// errMsgLimit bounds per-row error text so reports stay readable.
	errMsgLimit = 200

	// maxWindowDays bounds the report window a caller may request.
	maxWindowDays = 366
)

// DefaultConcurrency is the fetch cap used when none is configured. A
// politeness limit towards the upstream API, not a protocol constraint.
const DefaultConcurrency = 5

// Fetcher is the slice of the provider client the engine depends on.
type Fetcher interface {
	HistoryReport(ctx context.Context, terminalIDs []string, from, to time.Time) (*omnicomm.ReportPayload, error)
}

// Detailer supplies descriptive vehicle metadata for report rows.
type Detailer interface {
	Details(terminalID string) registry.VehicleDetails
}

// ProgressFunc receives coarse progress during report generation. It may
// perform I/O; it is invoked outside the fetch concurrency gate.
type ProgressFunc func(completed, total int)

// Status classifies one report row.
type Status int

const (
	StatusOK Status = iota
	StatusNoData
	StatusError
)

// Row is the outcome for one requested vehicle ID.
type Row struct {
	TerminalID string
	Plate      string
	Name       string

	PointCount   int
	MaxValue     float64
	AvgValue     float64
	EngineActive bool

	Status Status
	ErrMsg string
}

// Result is one generated report.
type Result struct {
	Rows []Row
	From time.Time
	To   time.Time
	Days int
}

// Engine generates reports through a Fetcher under a concurrency cap.
type Engine struct {
	fetcher     Fetcher
	details     Detailer
	concurrency int64
	lg          log.Logger
}

// NewEngine builds an Engine. concurrency <= 0 falls back to
// DefaultConcurrency.
func NewEngine(fetcher Fetcher, details Detailer, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		fetcher:     fetcher,
		details:     details,
		concurrency: int64(concurrency),
		lg:          log.WithName("report"),
	}
}

// Generate produces one row per requested terminal ID over the window
// [now-days, now). Per-vehicle failures become Failure rows and never abort
// the batch; the only errors returned are validation ones, raised before
// any I/O.
func (e *Engine) Generate(ctx context.Context, terminalIDs []string, days int, progress ProgressFunc) (*Result, error) {
	if days < 1 || days > maxWindowDays {
		return nil, util.NewValidationError("report window must be between 1 and %d days, got %d", maxWindowDays, days)
	}

	now := time.Now()
	res := &Result{
		Rows: make([]Row, len(terminalIDs)),
		From: now.AddDate(0, 0, -days),
		To:   now,
		Days: days,
	}

	start := time.Now()
	e.lg.Info("report started", "vehicles", len(terminalIDs), "days", days)

	sem := semaphore.NewWeighted(e.concurrency)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for i, id := range terminalIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			// Each task owns res.Rows[i] exclusively until the WaitGroup
			// drains, so no row locking is needed.
			res.Rows[i] = e.fetchRow(ctx, sem, id, res.From, res.To)

			done := int(completed.Add(1))
			if progress != nil && done%progressStep == 0 {
				progress(done, len(terminalIDs))
			}
		}(i, id)
	}
	wg.Wait()

	metrics.ReportDuration.Observe(time.Since(start).Seconds())
	for i := range res.Rows {
		switch res.Rows[i].Status {
		case StatusOK:
			metrics.ReportRowsTotal.WithLabelValues("ok").Inc()
		case StatusNoData:
			metrics.ReportRowsTotal.WithLabelValues("no_data").Inc()
		case StatusError:
			metrics.ReportRowsTotal.WithLabelValues("error").Inc()
		}
	}

	e.lg.Info("report finished", "vehicles", len(terminalIDs), "elapsed", time.Since(start))
	return res, nil
}

// fetchRow fetches and summarizes one vehicle under the concurrency gate.
func (e *Engine) fetchRow(ctx context.Context, sem *semaphore.Weighted, id string, from, to time.Time) Row {
	row := Row{TerminalID: id}
	if e.details != nil {
		d := e.details.Details(id)
		row.Plate = d.Plate
		row.Name = d.Name
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		row.Status = StatusError
		row.ErrMsg = util.Truncate(err.Error(), errMsgLimit)
		return row
	}
	payload, err := e.fetcher.HistoryReport(ctx, []string{id}, from, to)
	sem.Release(1)

	if err != nil {
		e.lg.Warn("vehicle fetch failed", "terminal", id, "err", err)
		row.Status = StatusError
		row.ErrMsg = util.Truncate(err.Error(), errMsgLimit)
		return row
	}

	samples := payload.SeriesFor(id)
	if len(samples) == 0 {
		row.Status = StatusNoData
		return row
	}

	max, sum := samples[0], 0.0
	for _, v := range samples {
		if v > max {
			max = v
		}
		sum += v
	}

	row.Status = StatusOK
	row.PointCount = len(samples)
	row.MaxValue = max
	row.AvgValue = sum / float64(len(samples))
	row.EngineActive = max > engineActiveThreshold
	return row
}

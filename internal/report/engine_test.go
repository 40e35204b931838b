package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
)

// stubFetcher serves canned series or errors per terminal ID and tracks the
// number of concurrently in-flight fetches.
type stubFetcher struct {
	series map[string][]float64
	errs   map[string]error
	delay  time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       atomic.Int64
}

func (s *stubFetcher) HistoryReport(ctx context.Context, ids []string, from, to time.Time) (*omnicomm.ReportPayload, error) {
	s.calls.Add(1)
	cur := s.inFlight.Add(1)
	for {
		max := s.maxInFlight.Load()
		if cur <= max || s.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	defer s.inFlight.Add(-1)

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	id := ids[0]
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	samples, ok := s.series[id]
	if !ok {
		return &omnicomm.ReportPayload{}, nil
	}
	return &omnicomm.ReportPayload{
		Series: []omnicomm.VehicleSeries{{TerminalID: omnicomm.FlexString(id), Samples: samples}},
	}, nil
}

type stubDetailer map[string]registry.VehicleDetails

func (d stubDetailer) Details(id string) registry.VehicleDetails { return d[id] }

func TestGenerateRowPerVehicleInInputOrder(t *testing.T) {
	const n = 25
	fetcher := &stubFetcher{series: map[string][]float64{}, errs: map[string]error{}}
	var ids []string
	failing := map[string]bool{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%d", 1000+i)
		ids = append(ids, id)
		switch i % 3 {
		case 0:
			fetcher.series[id] = []float64{50, 150}
		case 1:
			// no entry: provider succeeds but returns no points
		case 2:
			fetcher.errs[id] = errors.New("boom " + id)
			failing[id] = true
		}
	}

	eng := NewEngine(fetcher, nil, 5)
	res, err := eng.Generate(context.Background(), ids, 7, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(res.Rows) != n {
		t.Fatalf("got %d rows, want %d", len(res.Rows), n)
	}
	var failures int
	for i, row := range res.Rows {
		if row.TerminalID != ids[i] {
			t.Errorf("row %d is %s, want %s (input order broken)", i, row.TerminalID, ids[i])
		}
		if row.Status == StatusError {
			failures++
			if !failing[row.TerminalID] {
				t.Errorf("unexpected failure row for %s: %s", row.TerminalID, row.ErrMsg)
			}
		} else if failing[row.TerminalID] {
			t.Errorf("vehicle %s should have failed", row.TerminalID)
		}
	}
	if want := len(fetcher.errs); failures != want {
		t.Errorf("got %d failure rows, want %d", failures, want)
	}
}

func TestGenerateConcurrencyCap(t *testing.T) {
	fetcher := &stubFetcher{series: map[string][]float64{}, delay: 5 * time.Millisecond}
	var ids []string
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("%d", i)
		ids = append(ids, id)
		fetcher.series[id] = []float64{1}
	}

	eng := NewEngine(fetcher, nil, 5)
	if _, err := eng.Generate(context.Background(), ids, 1, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if max := fetcher.maxInFlight.Load(); max > 5 {
		t.Errorf("observed %d concurrent fetches, cap is 5", max)
	}
	if calls := fetcher.calls.Load(); calls != int64(len(ids)) {
		t.Errorf("fetcher called %d times, want %d", calls, len(ids))
	}
}

func TestGenerateProgressEveryTenth(t *testing.T) {
	fetcher := &stubFetcher{series: map[string][]float64{}}
	var ids []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("%d", i)
		ids = append(ids, id)
		fetcher.series[id] = []float64{1}
	}

	var mu sync.Mutex
	var notified []int
	progress := func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 25 {
			t.Errorf("progress total = %d, want 25", total)
		}
		notified = append(notified, completed)
	}

	eng := NewEngine(fetcher, nil, 5)
	if _, err := eng.Generate(context.Background(), ids, 1, progress); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(notified) != 2 {
		t.Fatalf("got %d notifications %v, want 2 (at 10 and 20)", len(notified), notified)
	}
	for _, c := range notified {
		if c%10 != 0 {
			t.Errorf("notification at completed=%d, want multiples of 10", c)
		}
	}
}

func TestGenerateSummaryAndThreshold(t *testing.T) {
	fetcher := &stubFetcher{series: map[string][]float64{
		"326026157": {50, 150, 100},
		"400000001": {10, 20, 30},
	}}
	details := stubDetailer{
		"326026157": {Plate: "2700РВ78", Name: "Truck 1"},
	}

	eng := NewEngine(fetcher, details, 5)
	res, err := eng.Generate(context.Background(), []string{"326026157", "400000001"}, 7, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	active := res.Rows[0]
	if active.Status != StatusOK || active.PointCount != 3 {
		t.Fatalf("row 0 = %+v", active)
	}
	if active.MaxValue != 150 || active.AvgValue != 100 {
		t.Errorf("row 0 max/avg = %v/%v, want 150/100", active.MaxValue, active.AvgValue)
	}
	if !active.EngineActive {
		t.Error("max 150 exceeds the engine-on threshold, row must be active")
	}
	if active.Plate != "2700РВ78" || active.Name != "Truck 1" {
		t.Errorf("row 0 details = %q/%q", active.Plate, active.Name)
	}

	idle := res.Rows[1]
	if idle.EngineActive {
		t.Error("max 30 is under the threshold, row must be inactive")
	}
}

func TestGenerateNoData(t *testing.T) {
	fetcher := &stubFetcher{}
	eng := NewEngine(fetcher, nil, 5)

	res, err := eng.Generate(context.Background(), []string{"777"}, 7, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Rows[0].Status != StatusNoData {
		t.Errorf("row = %+v, want NoData", res.Rows[0])
	}
	if res.Rows[0].StatusText() != "No data" {
		t.Errorf("StatusText = %q", res.Rows[0].StatusText())
	}
}

func TestGenerateTruncatesErrorText(t *testing.T) {
	long := strings.Repeat("network unreachable ", 30)
	fetcher := &stubFetcher{errs: map[string]error{"999": errors.New(long)}}
	eng := NewEngine(fetcher, nil, 5)

	res, err := eng.Generate(context.Background(), []string{"999"}, 1, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	row := res.Rows[0]
	if row.Status != StatusError {
		t.Fatalf("row = %+v, want Error", row)
	}
	if got := len([]rune(row.ErrMsg)); got > 200 {
		t.Errorf("error text %d runes, want capped at 200", got)
	}
	if !strings.HasSuffix(row.ErrMsg, "...") {
		t.Errorf("truncated error text %q should end with an ellipsis", row.ErrMsg)
	}
	if !strings.HasPrefix(row.StatusText(), "Error: ") {
		t.Errorf("StatusText = %q", row.StatusText())
	}
}

func TestGenerateValidatesDays(t *testing.T) {
	for _, days := range []int{0, -1, 400} {
		fetcher := &stubFetcher{}
		eng := NewEngine(fetcher, nil, 5)
		_, err := eng.Generate(context.Background(), []string{"1"}, days, nil)
		if !util.IsValidation(err) {
			t.Errorf("days=%d: error = %v, want ValidationError", days, err)
		}
		if fetcher.calls.Load() != 0 {
			t.Errorf("days=%d: validation must happen before any fetch", days)
		}
	}
}

func TestGenerateWindow(t *testing.T) {
	fetcher := &stubFetcher{}
	eng := NewEngine(fetcher, nil, 5)
	res, err := eng.Generate(context.Background(), nil, 7, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := res.To.Sub(res.From); got < 6*24*time.Hour || got > 8*24*time.Hour {
		t.Errorf("window = %v, want about 7 days", got)
	}
}

func TestResultCSV(t *testing.T) {
	res := &Result{
		Rows: []Row{
			{TerminalID: "326026157", Plate: "2700РВ78", Name: "Truck 1", PointCount: 3, MaxValue: 150, AvgValue: 100, EngineActive: true, Status: StatusOK},
			{TerminalID: "400000001", Status: StatusNoData},
			{TerminalID: "999", Status: StatusError, ErrMsg: "timeout"},
		},
		To:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Days: 7,
	}

	data, err := res.CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("artifact must start with a UTF-8 byte-order marker")
	}

	lines := strings.Split(strings.TrimSpace(string(data[3:])), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(lines))
	}
	if lines[0] != "ID;Plate;Name;PointCount;MaxValue;AvgValue;EngineActive;Status" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "326026157;2700РВ78;Truck 1;3;150;100.00;true;OK") {
		t.Errorf("ok row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "No data") {
		t.Errorf("no-data row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "Error: timeout") {
		t.Errorf("error row = %q", lines[3])
	}

	if got := res.Filename(); got != "fleet_report_20260314_150926_7d.csv" {
		t.Errorf("Filename = %q", got)
	}
}

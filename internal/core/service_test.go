package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
	"github.com/fleetpulse-io/fleetpulse/internal/report"
)

type stubClient struct {
	states map[string]*omnicomm.StateRecord
	series map[string][]float64
	errs   map[string]error
}

func (c *stubClient) VehicleState(ctx context.Context, id string) (*omnicomm.StateRecord, error) {
	if err, ok := c.errs[id]; ok {
		return nil, err
	}
	if st, ok := c.states[id]; ok {
		return st, nil
	}
	return nil, &omnicomm.APIError{Status: 404, Body: "unknown terminal"}
}

func (c *stubClient) HistoryReport(ctx context.Context, ids []string, from, to time.Time) (*omnicomm.ReportPayload, error) {
	id := ids[0]
	if err, ok := c.errs[id]; ok {
		return nil, err
	}
	samples := c.series[id]
	if samples == nil {
		return &omnicomm.ReportPayload{}, nil
	}
	return &omnicomm.ReportPayload{
		Series: []omnicomm.VehicleSeries{{TerminalID: omnicomm.FlexString(id), Samples: samples}},
	}, nil
}

func newTestService(client *stubClient) *Service {
	idx := registry.NewIndex(
		map[string]string{"2700РВ78": "326026157"},
		map[string]registry.VehicleDetails{"326026157": {Plate: "2700РВ78", Name: "Truck 1"}},
	)
	return NewService(&Config{
		Client: client,
		Index:  idx,
		Engine: report.NewEngine(client, idx, 5),
	})
}

func TestResolve(t *testing.T) {
	s := newTestService(&stubClient{})

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"326026157", "326026157", nil},
		{"2700РВ78", "326026157", nil},
		{"2700рв78", "326026157", nil},
		{" 2700 рв 78 ", "326026157", nil},
		{"0000XX00", "", util.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := s.Resolve(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := s.Resolve("   "); !util.IsValidation(err) {
		t.Errorf("blank identifier should be a validation error, got %v", err)
	}
}

func TestStateByPlate(t *testing.T) {
	active := true
	client := &stubClient{states: map[string]*omnicomm.StateRecord{
		"326026157": {Status: &active, Address: "Depot 3"},
	}}
	s := newTestService(client)

	state, terminalID, err := s.State(context.Background(), "2700рв78")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if terminalID != "326026157" {
		t.Errorf("terminalID = %q", terminalID)
	}
	if state.Address != "Depot 3" {
		t.Errorf("state = %+v", state)
	}
}

func TestGenerateReportExampleScenario(t *testing.T) {
	client := &stubClient{series: map[string][]float64{
		"326026157": {80, 150, 120},
	}}
	s := newTestService(client)

	res, err := s.GenerateReport(context.Background(), []string{"326026157"}, 7, nil)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows", len(res.Rows))
	}
	row := res.Rows[0]
	if row.TerminalID != "326026157" || row.Status != report.StatusOK {
		t.Fatalf("row = %+v", row)
	}
	if row.PointCount == 0 || row.MaxValue != 150 || !row.EngineActive {
		t.Errorf("row = %+v, want pointCount>0, max 150, engine active", row)
	}
	if row.Plate != "2700РВ78" || row.Name != "Truck 1" {
		t.Errorf("row details = %q/%q", row.Plate, row.Name)
	}
}

func TestGenerateReportTimeoutBecomesErrorRow(t *testing.T) {
	client := &stubClient{errs: map[string]error{
		"999": &omnicomm.APIError{Err: errors.New("context deadline exceeded")},
	}}
	s := newTestService(client)

	res, err := s.GenerateReport(context.Background(), []string{"999"}, 1, nil)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	row := res.Rows[0]
	if row.TerminalID != "999" || row.Status != report.StatusError {
		t.Fatalf("row = %+v", row)
	}
	if got := row.StatusText(); len(got) == 0 || got[:7] != "Error: " {
		t.Errorf("StatusText = %q", got)
	}
}

func TestGenerateReportFleetFallback(t *testing.T) {
	client := &stubClient{series: map[string][]float64{"326026157": {1}}}
	s := newTestService(client)

	res, err := s.GenerateReport(context.Background(), nil, 7, nil)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].TerminalID != "326026157" {
		t.Errorf("fleet fallback rows = %+v", res.Rows)
	}
}

func TestGenerateReportEmptyFleet(t *testing.T) {
	s := NewService(&Config{
		Client: &stubClient{},
		Index:  registry.NewIndex(nil, nil),
		Engine: report.NewEngine(&stubClient{}, nil, 5),
	})
	if _, err := s.GenerateReport(context.Background(), nil, 7, nil); !util.IsValidation(err) {
		t.Errorf("empty fleet should be a validation error, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	s := newTestService(&stubClient{})

	results, err := s.Search("2700", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].TerminalID != "326026157" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Details.Name != "Truck 1" {
		t.Errorf("details not attached: %+v", results[0])
	}

	if _, err := s.Search("q", 10); !util.IsValidation(err) {
		t.Errorf("short query error = %v, want ValidationError", err)
	}
}

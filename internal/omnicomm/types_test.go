package omnicomm

import (
	"encoding/json"
	"testing"
	"time"
)

func TestReportPayloadShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{"list of series", `{"data":[{"terminalId":"1","values":[1]},{"terminalId":"2","values":[2]}]}`, []string{"1", "2"}},
		{"single object", `{"data":{"terminalId":"1","values":[1,2]}}`, []string{"1"}},
		{"numeric terminal id", `{"data":{"terminalId":326026157,"values":[5]}}`, []string{"326026157"}},
		{"null data", `{"data":null}`, nil},
		{"absent data", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ReportPayload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(p.Series) != len(tt.wantIDs) {
				t.Fatalf("got %d series, want %d", len(p.Series), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if string(p.Series[i].TerminalID) != id {
					t.Errorf("series %d id = %q, want %q", i, p.Series[i].TerminalID, id)
				}
			}
		})
	}
}

func TestReportPayloadBadShape(t *testing.T) {
	var p ReportPayload
	if err := json.Unmarshal([]byte(`{"data":42}`), &p); err == nil {
		t.Error("scalar data should be rejected, not sniffed around")
	}
}

func TestSeriesFor(t *testing.T) {
	p := ReportPayload{Series: []VehicleSeries{
		{TerminalID: "1", Samples: []float64{10, 20}},
		{TerminalID: "2", Samples: nil},
	}}

	if got := p.SeriesFor("1"); len(got) != 2 {
		t.Errorf("SeriesFor(1) = %v", got)
	}
	if got := p.SeriesFor("2"); got != nil {
		t.Errorf("SeriesFor(2) = %v, want nil", got)
	}
	if got := p.SeriesFor("999"); got != nil {
		t.Errorf("SeriesFor(999) = %v, want nil", got)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want time.Time
	}{
		{"epoch seconds", 1700000000, time.Unix(1700000000, 0)},
		{"epoch milliseconds", 1700000000000, time.UnixMilli(1700000000000)},
		{"boundary stays seconds", 10_000_000_000, time.Unix(10_000_000_000, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("NormalizeTimestamp(%d) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTimestampSameInstant(t *testing.T) {
	// The same instant expressed in seconds and in milliseconds must
	// normalize identically.
	sec := int64(1700000000)
	if !NormalizeTimestamp(sec).Equal(NormalizeTimestamp(sec * 1000)) {
		t.Error("seconds and milliseconds forms of one instant diverge")
	}
}

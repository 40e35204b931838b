package omnicomm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString decodes a JSON string or number into a string. The provider is
// inconsistent about whether terminal IDs come back quoted.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// GPSPoint is the last known position of a terminal.
type GPSPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StateRecord is the current state of one vehicle/terminal as reported by
// the provider. Optional fields are pointers so "absent" is distinguishable
// from zero.
type StateRecord struct {
	Status       *bool     `json:"status"`
	Address      string    `json:"address"`
	CurrentFuel  *float64  `json:"currentFuel"`
	CurrentIgn   *int      `json:"currentIgn"`
	CurrentSpeed *float64  `json:"currentSpeed"`
	LastDataDate *int64    `json:"lastDataDate"`
	LastGPS      *GPSPoint `json:"lastGPS"`
	LastGPSDir   *float64  `json:"lastGPSDir"`
	LastGPSSat   *int      `json:"lastGPSSat"`
	SpeedExceed  *bool     `json:"speedExceed"`
	Voltage      *float64  `json:"voltage"`
}

// VehicleSeries is one vehicle's numeric sample series within a history
// report response.
type VehicleSeries struct {
	TerminalID FlexString `json:"terminalId"`
	Samples    []float64  `json:"values"`
}

// ReportPayload is the decoded body of a history report call. The provider
// nests the payload under "data" either as a single object or as a list
// depending on how many vehicles were requested, so decoding handles both
// shapes explicitly here and nowhere else.
type ReportPayload struct {
	Series []VehicleSeries
}

func (p *ReportPayload) UnmarshalJSON(b []byte) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 {
		p.Series = nil
		return nil
	}

	data := bytes.TrimSpace(envelope.Data)
	switch {
	case len(data) > 0 && data[0] == '[':
		return json.Unmarshal(data, &p.Series)
	case len(data) > 0 && data[0] == '{':
		var one VehicleSeries
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		p.Series = []VehicleSeries{one}
		return nil
	case bytes.Equal(data, []byte("null")):
		p.Series = nil
		return nil
	default:
		return fmt.Errorf("report payload: unexpected data shape: %s", firstBytes(data, 40))
	}
}

// SeriesFor returns the sample series for the given terminal ID, or nil if
// the response carries no data for it.
func (p *ReportPayload) SeriesFor(terminalID string) []float64 {
	for i := range p.Series {
		if string(p.Series[i].TerminalID) == terminalID {
			return p.Series[i].Samples
		}
	}
	return nil
}

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// utf8BOM prefixes the artifact so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the artifact's column set, in order.
var Header = []string{"ID", "Plate", "Name", "PointCount", "MaxValue", "AvgValue", "EngineActive", "Status"}

// StatusText renders the Status column for one row.
func (r Row) StatusText() string {
	switch r.Status {
	case StatusOK:
		return "OK"
	case StatusNoData:
		return "No data"
	default:
		return "Error: " + r.ErrMsg
	}
}

// CSV encodes the report as semicolon-delimited UTF-8 with a byte-order
// marker, one header row plus one row per requested vehicle, in input
// order.
func (res *Result) CSV() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		record := []string{
			row.TerminalID,
			row.Plate,
			row.Name,
			"", // PointCount
			"", // MaxValue
			"", // AvgValue
			"", // EngineActive
			row.StatusText(),
		}
		if row.Status == StatusOK {
			record[3] = strconv.Itoa(row.PointCount)
			record[4] = strconv.FormatFloat(row.MaxValue, 'f', -1, 64)
			record[5] = strconv.FormatFloat(row.AvgValue, 'f', 2, 64)
			record[6] = strconv.FormatBool(row.EngineActive)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename derives the artifact file name from the generation instant and
// the period label.
func (res *Result) Filename() string {
	return fmt.Sprintf("fleet_report_%s_%dd.csv", res.To.Format("20060102_150405"), res.Days)
}

// Package ingest loads sensor readings exported as CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

// Columns lists the header names a readings file may carry. Only timestamp
// is required; missing numeric columns read as zero.
var Columns = []string{"timestamp", "voltage", "ampere", "power", "energy", "pf", "price"}

// timestampLayouts are tried in order. Layouts without a zone are read in
// the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ErrMissingTimestamp is returned when the header has no timestamp column.
var ErrMissingTimestamp = errors.New("csv header has no timestamp column")

// ParseCSV reads readings from r. The first row is a header naming the
// columns in any order; unknown columns are ignored. Blank rows are skipped.
func ParseCSV(r io.Reader, loc *time.Location) ([]model.Reading, error) {
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := idx["timestamp"]; !ok {
		return nil, ErrMissingTimestamp
	}

	var readings []model.Reading
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		rd, err := parseRecord(record, idx, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		readings = append(readings, rd)
	}
	return readings, nil
}

func parseRecord(record []string, idx map[string]int, loc *time.Location) (model.Reading, error) {
	var rd model.Reading

	ts, err := parseTimestamp(field(record, idx, "timestamp"), loc)
	if err != nil {
		return rd, err
	}
	rd.Timestamp = ts

	targets := map[string]*float64{
		"voltage": &rd.Voltage,
		"ampere":  &rd.Ampere,
		"power":   &rd.Power,
		"energy":  &rd.Energy,
		"pf":      &rd.PowerFactor,
		"price":   &rd.Price,
	}
	for name, dst := range targets {
		raw := field(record, idx, name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rd, fmt.Errorf("column %s: invalid number %q", name, raw)
		}
		*dst = v
	}
	return rd, nil
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

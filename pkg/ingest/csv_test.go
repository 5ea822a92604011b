package ingest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/wattsense/pkg/ingest"
)

func TestParseCSV(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	input := `timestamp,voltage,ampere,power,energy,pf,price
2024-01-10 08:00:00,220.5,1.2,250,0.25,0.95,361
2024-01-10T09:00:00Z,221,1.1,240,0.24,0.94,346.56

`

	readings, err := ingest.ParseCSV(strings.NewReader(input), jakarta)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	first := readings[0]
	assert.True(t, first.Timestamp.Equal(time.Date(2024, 1, 10, 8, 0, 0, 0, jakarta)))
	assert.Equal(t, 220.5, first.Voltage)
	assert.Equal(t, 1.2, first.Ampere)
	assert.Equal(t, 250.0, first.Power)
	assert.Equal(t, 0.25, first.Energy)
	assert.Equal(t, 0.95, first.PowerFactor)
	assert.Equal(t, 361.0, first.Price)

	assert.True(t, readings[1].Timestamp.Equal(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)))
}

func TestParseCSVColumnOrderAndMissing(t *testing.T) {
	input := "Price, Timestamp\n100,2024-02-01 00:00:00\n"

	readings, err := ingest.ParseCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 100.0, readings[0].Price)
	assert.Zero(t, readings[0].Energy)
	assert.Equal(t, time.UTC, readings[0].Timestamp.Location())
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"no timestamp column", "price,energy\n1,2\n", "no timestamp column"},
		{"bad timestamp", "timestamp,price\nyesterday,1\n", `line 2: invalid timestamp "yesterday"`},
		{"bad number", "timestamp,price\n2024-01-01 00:00:00,abc\n", "column price"},
		{"empty timestamp", "timestamp,price\n,5\n", "empty timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.ParseCSV(strings.NewReader(tt.input), time.UTC)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCSVEmpty(t *testing.T) {
	readings, err := ingest.ParseCSV(strings.NewReader(""), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

package units_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

func TestRoundTrip(t *testing.T) {
	assert.Zero(t, units.ToMoney(units.ToEnergy(0)))

	values := []float64{1, 1444, 95_000, 100_000.5, 123_456_789.125, 1e-6, -42.5}
	for _, x := range values {
		assert.InEpsilon(t, x, units.ToMoney(units.ToEnergy(x)), 1e-12, "x=%v", x)
	}
}

func TestConversion(t *testing.T) {
	assert.InDelta(t, 1.0, units.ToEnergy(1444), 1e-12)
	assert.InDelta(t, 2888.0, units.ToMoney(2), 1e-12)
}

func TestConversion_NonFinite(t *testing.T) {
	assert.Equal(t, 0.0, units.ToEnergy(math.NaN()))
	assert.Equal(t, 0.0, units.ToMoney(math.Inf(1)))
}

func TestFormatIDR(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234567, "Rp 1.234.567"},
		{100000, "Rp 100.000"},
		{999, "Rp 999"},
		{1499.6, "Rp 1.500"},
		{0, "Rp 0"},
		{-1234, "-Rp 1.234"},
		{math.NaN(), "Rp 0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, units.FormatIDR(tt.in))
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Rp 100.000 (69.25 kWh)", units.Label(100000))
	assert.Equal(t, "12.35 kWh", units.FormatKWh(12.345))
}

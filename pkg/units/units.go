// Package units converts between Rupiah and kWh at the fixed tariff and
// formats both for display.
package units

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// RateIDRPerKWh is the tariff used for every conversion.
const RateIDRPerKWh = 1444

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ToEnergy converts Rupiah to kWh.
func ToEnergy(idr float64) float64 {
	return finite(idr) / RateIDRPerKWh
}

// ToMoney converts kWh to Rupiah.
func ToMoney(kwh float64) float64 {
	return finite(kwh) * RateIDRPerKWh
}

// FormatIDR renders v as Indonesian Rupiah with no decimals, e.g. "Rp 1.234.567".
func FormatIDR(v float64) string {
	v = math.Round(finite(v))
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "Rp " + humanize.FormatFloat("#.###,", v)
}

// FormatKWh renders an energy amount with two decimals.
func FormatKWh(kwh float64) string {
	return fmt.Sprintf("%.2f kWh", finite(kwh))
}

// Label renders an IDR amount with its kWh equivalent, e.g.
// "Rp 100.000 (69.25 kWh)".
func Label(idr float64) string {
	return fmt.Sprintf("%s (%.2f kWh)", FormatIDR(idr), ToEnergy(idr))
}

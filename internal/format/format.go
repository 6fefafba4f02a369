// Package format renders numbers and dates the way the pt-BR dashboard shows
// them.
package format

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/postmetrics/internal/dashboard"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// NumberBR groups thousands with "." and writes at most fractionDigits
// decimals after ",". Trailing zeros are dropped.
func NumberBR(n float64, fractionDigits int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	fractionDigits = max(fractionDigits, 0)
	return printer.Sprint(number.Decimal(n,
		number.MinFractionDigits(0),
		number.MaxFractionDigits(fractionDigits),
	))
}

type compactUnit struct {
	scale  float64
	suffix string
}

// compactUnits are largest first.
var compactUnits = []compactUnit{
	{1e12, "tri"},
	{1e9, "bi"},
	{1e6, "mi"},
	{1e3, "mil"},
}

// Compact abbreviates n with the short pt-BR suffixes ("1,2 mil", "3 mi",
// "1,5 bi") keeping at most one decimal. Values under a thousand are
// written in full.
func Compact(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	abs := math.Abs(n)
	for i, u := range compactUnits {
		if abs < u.scale {
			continue
		}
		v := roundOne(abs / u.scale)
		// 999.96 mil rounds up to the next unit.
		if v >= 1000 && i > 0 {
			u = compactUnits[i-1]
			v = roundOne(abs / u.scale)
		}
		return NumberBR(math.Copysign(v, n), 1) + " " + u.suffix
	}
	if roundOne(abs) >= 1000 {
		return NumberBR(math.Copysign(1, n), 1) + " mil"
	}
	return NumberBR(n, 1)
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// DateBR formats a date cell as dd/mm/yyyy. Values that do not parse are
// returned unchanged.
func DateBR(s string) string {
	t, ok := dashboard.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// DateTimeBR formats t as dd/mm/yyyy hh:mm.
func DateTimeBR(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

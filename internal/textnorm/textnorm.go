// Package textnorm holds the string helpers shared by every derived view:
// accent-insensitive normalization, pt-BR number parsing, and account identity keys.
package textnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder is shown wherever a label is missing.
const Placeholder = "—"

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s and strips diacritics so "Interações" and
// "INTERACOES" compare equal. The result is for matching only, never display.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// ParseLocaleNumber converts a pt-BR formatted number ("1.234.567,89") to a
// float64. Dots are thousands separators and the first comma is the decimal
// separator. Anything that does not parse to a finite number yields 0.
func ParseLocaleNumber(s string) float64 {
	if s == "" {
		return 0
	}
	var b strings.Builder
	b.Grow(len(s))
	decimal := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '.':
			continue
		case r == ',' && !decimal:
			decimal = true
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

var (
	urlRe        = regexp.MustCompile(`https?://\S+`)
	handleRe     = regexp.MustCompile(`@(\S+)`)
	handleSepRe  = regexp.MustCompile(`[_.]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// pictographic covers emoji presentation and extended pictographic code
// points, plus the joiners and modifiers that glue emoji sequences together.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00a9, Hi: 0x00a9, Stride: 1},
		{Lo: 0x00ae, Hi: 0x00ae, Stride: 1},
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x23ff, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3299, Stride: 1},
		{Lo: 0xfe0e, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
		{Lo: 0xe0020, Hi: 0xe007f, Stride: 1},
	},
	LatinOffset: 2,
}

var stripPictographs = runes.Remove(runes.In(pictographic))

// CleanID derives the account key used to deduplicate rows across name and
// handle variants. URLs, the "@" of handles, emoji, accents and case are
// dropped, handle separators ("_", ".") become spaces, and whitespace is
// collapsed. A blank input yields "".
func CleanID(raw string) string {
	t := urlRe.ReplaceAllString(raw, "")
	t = handleRe.ReplaceAllString(t, "$1")
	t = handleSepRe.ReplaceAllString(t, " ")
	if out, _, err := transform.String(stripPictographs, t); err == nil {
		t = out
	}
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(Normalize(t))
}

// DisplayName returns the trimmed raw value, or Placeholder when empty.
func DisplayName(raw string) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return Placeholder
}

package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// usdUnderflowFloor is the smallest absolute USD value rendered as a number.
// Anything below it (but non-zero) is clamped at formatting time only; stored
// numeric fields keep full precision.
const usdUnderflowFloor = 0.0001

// Amount converts a token amount to a human-readable string with up to four
// fractional digits, trimming trailing zeros.
// Example: 1.23450000 => "1.2345", 10.0 => "10".
func Amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	return trimDecimal(s)
}

// SignedAmount formats an amount delta with an explicit sign.
func SignedAmount(v float64) string {
	if v < 0 {
		return "-" + Amount(-v)
	}
	return "+" + Amount(v)
}

// USD formats an absolute USD value. Values under $0.0001 render as
// "< $0.0001"; values under one cent keep four fractional digits so dust is
// still distinguishable from zero.
func USD(v float64) string {
	v = math.Abs(v)
	if v == 0 {
		return "$0"
	}
	if v < usdUnderflowFloor {
		return "< $0.0001"
	}
	if v < 0.01 {
		return "$" + trimDecimal(strconv.FormatFloat(v, 'f', 4, 64))
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// SignedUSD formats a signed USD delta, e.g. "+$12.34" or "-$0.50".
func SignedUSD(v float64) string {
	if v < 0 {
		return "-" + USD(v)
	}
	return "+" + USD(v)
}

// ChangePercent renders the relative change between a prior and a current
// value. A position that appeared from nothing is "+100.00%", no movement
// from zero is "+0.00%".
func ChangePercent(pre, cur float64) string {
	if pre == 0 {
		if cur == 0 {
			return "+0.00%"
		}
		return "+100.00%"
	}
	return fmt.Sprintf("%+.2f%%", (cur-pre)/pre*100)
}

// Percent renders a non-negative percentage with two decimals and no sign,
// e.g. "12.34%".
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func trimDecimal(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

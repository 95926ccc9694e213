package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// shortAddr keeps enough of a base58 address to recognise it in a table.
func shortAddr(addr string) string {
	if len(addr) <= 11 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

// fmtAmount prints a token quantity with a precision that suits its magnitude.
func fmtAmount(v float64) string {
	switch a := math.Abs(v); {
	case a == 0:
		return "0"
	case a >= 1000:
		return groupThousands(strconv.FormatFloat(v, 'f', 2, 64))
	case a >= 1:
		return strconv.FormatFloat(v, 'f', 4, 64)
	default:
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
}

// fmtUSD uses cents for anything above a dollar and significant digits below, CHEESE
// trades at fractions of a cent.
func fmtUSD(v float64) string {
	if math.Abs(v) >= 1 || v == 0 {
		return "$" + groupThousands(strconv.FormatFloat(v, 'f', 2, 64))
	}
	return "$" + strconv.FormatFloat(v, 'g', 6, 64)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// formatFeeRate renders a fractional fee as a percentage without trailing zeros.
func formatFeeRate(rate float64) string {
	return formatPercent(rate * 100)
}

func formatPercent(p float64) string {
	str := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", p), "0"), ".")
	if str == "" || str == "-0" {
		str = "0"
	}
	return fmt.Sprintf("%s%%", str)
}

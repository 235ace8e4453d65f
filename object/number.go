package object

import (
	"math"
	"strconv"
	"strings"
)

// Number is a Lua number, always a float64.
type Number float64

func (n Number) Type() Type { return NUMBER }
func (n Number) String() string { return FormatNumber(float64(n)) }
func (n Number) Interface() any { return float64(n) }
func (Number) value() {}

// IsInteger reports whether n has no fractional part.
func (n Number) IsInteger() bool {
	f := float64(n)
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

// FormatNumber renders f like the C format "%.14g".
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', 14, 64)
}

// ToNumber converts v to a number following the arithmetic coercion rules:
// numbers pass through and strings that parse as numerals are converted.
func ToNumber(v Value) (Number, bool) {
	switch v := v.(type) {
	case Number:
		return v, true
	case String:
		f, ok := ParseNumber(string(v))
		return Number(f), ok
	}
	return 0, false
}

const luaSpace = " \t\n\r\f\v"

// ParseNumber parses a Lua numeral: an optionally signed decimal or
// hexadecimal number surrounded by optional whitespace.
func ParseNumber(s string) (float64, bool) {
	s = strings.Trim(s, luaSpace)
	if s == "" {
		return 0, false
	}
	body := s
	neg := false
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		f, ok := parseHex(body[2:])
		if neg {
			f = -f
		}
		return f, ok
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !(c >= '0' && c <= '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Overflowing numerals still convert, to +/-inf
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// parseHex parses the digits of a hexadecimal numeral with an optional
// fraction and binary exponent.
func parseHex(s string) (float64, bool) {
	var mantissa float64
	exp := 0
	digits := 0
	i := 0
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if seenDot {
				return 0, false
			}
			seenDot = true
			continue
		}
		d, ok := hexDigit(c)
		if !ok {
			break
		}
		mantissa = mantissa*16 + float64(d)
		if seenDot {
			exp -= 4
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) {
		if s[i] != 'p' && s[i] != 'P' {
			return 0, false
		}
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, false
		}
		exp += e
	}
	return math.Ldexp(mantissa, exp), true
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

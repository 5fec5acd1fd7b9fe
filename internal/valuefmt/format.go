// Package valuefmt renders decoded wire values into the displayValue
// strings required by spec.md §4.6. Every function here is a pure
// transform from already-decoded bytes/integers to a string; neither the
// row-oriented nor the column-oriented decoder duplicates this logic, so
// a UUID or a Decimal128 displays identically regardless of which wire
// format produced it.
package valuefmt

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Decimal renders raw (the stored integer) as a fixed-point decimal with
// exactly scale digits after the point, using integer division/modulo
// only (§9 "never float"). scale == 0 returns the bare integer.
func Decimal(raw *big.Int, scale int) string {
	v := new(big.Int).Set(raw)
	neg := v.Sign() < 0
	if neg {
		v.Neg(v)
	}

	if scale == 0 {
		if neg {
			return "-" + v.String()
		}

		return v.String()
	}

	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	intPart, fracPart := new(big.Int).QuoRem(v, mod, new(big.Int))

	sign := ""
	if neg {
		sign = "-"
	}

	return fmt.Sprintf("%s%s.%0*s", sign, intPart.String(), scale, fracPart.String())
}

// uuidByteOrder is the reordering spec.md §4.4 describes: the first eight
// hex pairs of the output come from input bytes 7,6,5,4,3,2,1,0 and the
// last eight from 15,14,13,12,11,10,9,8 (two 8-byte halves, each stored
// little-endian).
var uuidByteOrder = [16]int{7, 6, 5, 4, 3, 2, 1, 0, 15, 14, 13, 12, 11, 10, 9, 8}

// UUID renders 16 raw bytes as a standard 8-4-4-4-12 UUID string using
// the byte order above.
func UUID(b []byte) string {
	var hex [32]byte
	const digits = "0123456789abcdef"
	for i, srcIdx := range uuidByteOrder {
		hex[i*2] = digits[b[srcIdx]>>4]
		hex[i*2+1] = digits[b[srcIdx]&0x0F]
	}

	return string(hex[0:8]) + "-" + string(hex[8:12]) + "-" + string(hex[12:16]) + "-" +
		string(hex[16:20]) + "-" + string(hex[20:32])
}

// IPv4 renders 4 little-endian-stored bytes as a dotted-quad address,
// reading them in reverse (b[3].b[2].b[1].b[0]) per spec.md §4.4.
func IPv4(b []byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", b[3], b[2], b[1], b[0])
}

// IPv6 renders 16 big-endian bytes as eight colon-separated hex groups,
// deliberately never applying the "::" zero-compression RFC 5952 allows,
// since spec.md §4.4 asks for eight groups unconditionally.
func IPv6(b []byte) string {
	groups := make([]string, 8)
	for i := range 8 {
		groups[i] = fmt.Sprintf("%02x%02x", b[2*i], b[2*i+1])
	}

	return strings.Join(groups, ":")
}

// Date renders a day count since 1970-01-01 as an ISO-8601 date.
func Date(days int32) string {
	return epoch.AddDate(0, 0, int(days)).Format("2006-01-02")
}

// DateTime renders a second count since the Unix epoch as an ISO-8601
// timestamp.
func DateTime(seconds uint32) string {
	return time.Unix(int64(seconds), 0).UTC().Format(time.RFC3339)
}

// pow10 returns 10^n as an int64; n is always small (a decimal/time
// precision value, at most ~18).
func pow10(n int) int64 {
	v := int64(1)
	for range n {
		v *= 10
	}

	return v
}

// splitTicks divides ticks into a whole-unit count and a non-negative
// fractional remainder scaled by 10^precision, floor-dividing so the
// remainder is always >= 0 even for negative ticks (pre-epoch instants).
func splitTicks(ticks int64, precision int) (whole, frac, factor int64) {
	factor = pow10(precision)
	if factor == 1 {
		return ticks, 0, factor
	}

	whole = ticks / factor
	frac = ticks % factor
	if frac < 0 {
		frac += factor
		whole--
	}

	return whole, frac, factor
}

// DateTime64 renders a tick count (1 tick = 10^-precision seconds) since
// the Unix epoch as an ISO-8601 timestamp with a fractional-second
// component of exactly precision digits.
func DateTime64(ticks int64, precision int) string {
	sec, frac, factor := splitTicks(ticks, precision)
	t := time.Unix(sec, 0).UTC()

	if precision == 0 || factor == 1 {
		return t.Format(time.RFC3339)
	}

	return fmt.Sprintf("%s.%0*dZ", t.Format("2006-01-02T15:04:05"), precision, frac)
}

// clockString renders an elapsed-time value as ClickHouse's Time type
// does: a sign, a possibly 3-digit hour count (it is not bounded to 24,
// since Time represents elapsed duration, not wall-clock time-of-day),
// zero-padded minutes and seconds, and an optional fractional part.
// wholeSeconds and fracDigits are both non-negative; neg carries the sign.
func clockString(neg bool, wholeSeconds int64, fracDigits string) string {
	h := wholeSeconds / 3600
	m := (wholeSeconds % 3600) / 60
	s := wholeSeconds % 60

	sign := ""
	if neg {
		sign = "-"
	}

	if fracDigits == "" {
		return fmt.Sprintf("%s%03d:%02d:%02d", sign, h, m, s)
	}

	return fmt.Sprintf("%s%03d:%02d:%02d.%s", sign, h, m, s, fracDigits)
}

// Time renders a signed second count as a ClickHouse Time value.
func Time(seconds int32) string {
	neg := seconds < 0
	abs := int64(seconds)
	if neg {
		abs = -abs
	}

	return clockString(neg, abs, "")
}

// Time64 renders a signed tick count (1 tick = 10^-precision seconds) as
// a ClickHouse Time64 value.
func Time64(ticks int64, precision int) string {
	factor := pow10(precision)
	neg := ticks < 0
	abs := ticks
	if neg {
		abs = -abs
	}

	whole := abs / factor
	frac := abs % factor
	if factor == 1 {
		return clockString(neg, whole, "")
	}

	return clockString(neg, whole, fmt.Sprintf("%0*d", precision, frac))
}

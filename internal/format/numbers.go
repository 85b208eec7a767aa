package format

import (
	"math/big"
	"strings"
)

// FormatNumberString inserts thousands separators into a decimal string.
func FormatNumberString(s string) string {
	if s == "" {
		return ""
	}
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(sign) + len(s) + len(s)/3)
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// TruncateMiddle shortens s to its first and last edges characters when it
// is longer than limit.
func TruncateMiddle(s string, limit, edges int) string {
	if len(s) <= limit || 2*edges >= len(s) {
		return s
	}
	return s[:edges] + "..." + s[len(s)-edges:]
}

// FormatBigInt renders v in decimal, truncated in the middle beyond limit
// digits. A nil value renders as "-".
func FormatBigInt(v *big.Int, limit, edges int) string {
	if v == nil {
		return "-"
	}
	return TruncateMiddle(v.String(), limit, edges)
}

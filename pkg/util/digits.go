package util

import (
	"strconv"
	"strings"
)

// LastDigit extracts the last significant digit of a quote. The digit is
// taken from the full printed quote with the decimal point removed, so
// 7678.08 -> 8 and 6558.77 -> 7. Trailing zeros in the formatted quote are
// significant: upstream feeds quote with a fixed pip size.
func LastDigit(price float64) int {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	return LastDigitString(s)
}

// LastDigitString extracts the last digit from an already formatted quote.
func LastDigitString(quote string) int {
	s := strings.ReplaceAll(quote, ".", "")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return 0
	}
	d := s[len(s)-1]
	if d < '0' || d > '9' {
		return 0
	}
	return int(d - '0')
}

// IsEven reports digit parity.
func IsEven(digit int) bool { return digit%2 == 0 }

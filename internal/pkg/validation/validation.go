package validation

import (
	"regexp"
	"strings"
	"time"
)

// Tickers: letters, digits, dots and dashes (e.g. BRK.B, JKH.N0000).
var symbolRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,19}$`)

const isoDate = "2006-01-02"

// IsValidSymbol reports whether s, once trimmed and uppercased, is a ticker.
func IsValidSymbol(s string) bool {
	return symbolRe.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// IsISODate reports whether s is a calendar date in YYYY-MM-DD form.
func IsISODate(s string) bool {
	if len(s) != len(isoDate) {
		return false
	}
	_, err := time.Parse(isoDate, s)
	return err == nil
}

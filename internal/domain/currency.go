package domain

import (
	"regexp"
	"strings"
)

var currencyRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// NormalizeCurrency upper-cases a 3-letter ISO currency code. The second
// return is false when the input is not a 3-letter code.
func NormalizeCurrency(code string) (string, bool) {
	if !currencyRe.MatchString(code) {
		return "", false
	}
	return strings.ToUpper(code), true
}

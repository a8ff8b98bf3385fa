package aggregate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/j-veylop/commission-tally/internal/models"
)

// ErrNotNumeric is returned for values that have no numeric interpretation.
var ErrNotNumeric = errors.New("value is not numeric")

// ToFloat interprets a JSON value as a float64. Numbers and numeric strings
// convert; booleans, null, objects and sequences do not.
func ToFloat(n models.Node) (float64, error) {
	switch v := n.(type) {
	case models.Number:
		return ParseNumber(string(v))
	case models.String:
		return ParseNumber(string(v))
	default:
		return 0, ErrNotNumeric
	}
}

// ParseNumber parses a decimal float literal. Surrounding whitespace, a sign,
// an exponent, inf/infinity/nan in any case and underscores between digits are
// accepted. Hexadecimal literals are rejected. Overflow yields ±Inf.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotNumeric
	}

	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "0x") {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	if lower == "nan" {
		return math.NaN(), nil
	}

	if strings.Contains(s, "_") {
		if !underscoresBetweenDigits(s) {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
		}
		s = strings.ReplaceAll(s, "_", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return f, nil
}

func underscoresBetweenDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Package format renders dates and money the way the dealership staff read
// them: DD/MM/YYYY dates and rupee amounts with Indian digit grouping.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DisplayDateLayout is how dates are shown.
	DisplayDateLayout = "02/01/2006"
	// StorageDateLayout is how dates are stored.
	StorageDateLayout = "2006-01-02"

	RupeeSymbol = "₹"
)

var indianEnglish = language.MustParse("en-IN")

// Date renders an ISO date (or a time.Time) as DD/MM/YYYY. Values that are not
// dates are returned unchanged in their string form.
func Date(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DisplayDateLayout)
	case string:
		if strings.TrimSpace(t) == "" {
			return ""
		}
		parsed, err := ParseDate(t)
		if err != nil {
			return t
		}
		return parsed.Format(DisplayDateLayout)
	default:
		return fmt.Sprint(v)
	}
}

// ParseDate accepts DD/MM/YYYY or YYYY-MM-DD. RFC 3339 timestamps are
// truncated to their date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{StorageDateLayout, DisplayDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected DD/MM/YYYY or YYYY-MM-DD", s)
}

// NormalizeDate converts user input to the storage layout.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(StorageDateLayout), nil
}

// Currency renders an amount in rupees with Indian grouping and exactly two
// decimals, e.g. ₹1,23,456.78. Non-numeric input is returned as-is.
func Currency(v any) string {
	amount, ok := ToFloat(v)
	if !ok {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	return rupees(amount)
}

// Number renders a plain number with Indian grouping and no fixed scale.
func Number(v any) string {
	amount, ok := ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	p := message.NewPrinter(indianEnglish)
	return p.Sprintf("%v", number.Decimal(amount))
}

func rupees(amount float64) string {
	// round half away from zero before formatting so that the sign check
	// below sees the displayed value
	amount = math.Round(amount*100) / 100
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	p := message.NewPrinter(indianEnglish)
	return sign + RupeeSymbol + p.Sprintf("%v", number.Decimal(amount, number.Scale(2)))
}

// ToFloat converts numeric values, including numeric strings, to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellString renders a stored cell value as display text.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// CellFloat returns the numeric value of a cell and whether it had one.
func CellFloat(v any) (float64, bool) {
	switch c := v.(type) {
	case float64:
		return c, !math.IsNaN(c) && !math.IsInf(c, 0)
	case int:
		return float64(c), true
	case int64:
		return float64(c), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

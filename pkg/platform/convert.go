package platform

import (
	"math"
	"time"
)

// Bridge payloads come out of JSONCodec, so numbers are float64. Integer
// kinds are accepted too for values built in Go without a round trip.

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// parseString returns v if it is a string and "" otherwise.
func parseString(v any) string {
	s, _ := v.(string)
	return s
}

// parseBool accepts a JSON bool or its "true"/"false" spelling.
func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		if b == "true" || b == "false" {
			return b == "true", true
		}
	}
	return false, false
}

// parseTime reads Unix milliseconds. Missing or non-numeric values give the
// zero time; fractional milliseconds are dropped.
func parseTime(v any) time.Time {
	millis, ok := toFloat64(v)
	if !ok || math.IsNaN(millis) || math.IsInf(millis, 0) {
		return time.Time{}
	}
	return time.UnixMilli(int64(millis))
}

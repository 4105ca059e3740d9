package location

import (
	"strconv"
	"strings"
	"time"
)

// Fix is a location reading as delivered by a provider.
type Fix struct {
	// Latitude is the latitude in degrees.
	Latitude float64
	// Longitude is the longitude in degrees.
	Longitude float64
	// Altitude is the altitude in meters.
	Altitude float64
	// HorizontalAccuracy is the estimated accuracy radius in meters.
	HorizontalAccuracy float64
	// Timestamp is when the reading was taken.
	Timestamp time.Time
}

// Equal reports whether two fixes carry the same reading.
func (f Fix) Equal(other Fix) bool {
	return f.Latitude == other.Latitude &&
		f.Longitude == other.Longitude &&
		f.Altitude == other.Altitude &&
		f.HorizontalAccuracy == other.HorizontalAccuracy &&
		f.Timestamp.Equal(other.Timestamp)
}

// Sample is the value observers receive for a provider fix.
type Sample struct {
	fix Fix
}

// NewSample wraps a provider fix.
func NewSample(fix Fix) Sample {
	return Sample{fix: fix}
}

// Fix returns the wrapped provider reading, as is.
func (s Sample) Fix() Fix { return s.fix }

// Latitude returns the latitude in degrees.
func (s Sample) Latitude() float64 { return s.fix.Latitude }

// Longitude returns the longitude in degrees.
func (s Sample) Longitude() float64 { return s.fix.Longitude }

// Equal compares the wrapped fixes.
func (s Sample) Equal(other Sample) bool {
	return s.fix.Equal(other.fix)
}

// String renders the coordinates cut to two and four decimal places, e.g.
// "[55.75, 37.61]: latitude = 55.7522, longitude = 37.6155".
func (s Sample) String() string {
	return "[" + cut(s.fix.Latitude, 2) + ", " + cut(s.fix.Longitude, 2) + "]: " +
		"latitude = " + cut(s.fix.Latitude, 4) + ", " +
		"longitude = " + cut(s.fix.Longitude, 4)
}

func samplesOf(fixes []Fix) []Sample {
	samples := make([]Sample, len(fixes))
	for i, f := range fixes {
		samples[i] = NewSample(f)
	}
	return samples
}

// cut renders v with every digit past the given number of decimal places
// dropped. It works on the shortest decimal form of v, so 0.29 stays 0.29.
func cut(v float64, places int) string {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		if end := dot + 1 + places; end < len(text) {
			text = text[:end]
		}
		text = strings.TrimRight(text, "0")
		text = strings.TrimSuffix(text, ".")
	}
	if text == "-0" {
		return "0"
	}
	return text
}

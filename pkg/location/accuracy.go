package location

// Accuracy is the requested precision of location fixes. Values are ordered
// from most to least precise.
//
// The zero value, AccuracyDefault, resolves to the Dealer's default accuracy
// (ThreeKilometers unless configured otherwise).
type Accuracy int

const (
	// AccuracyDefault selects the Dealer's default accuracy.
	AccuracyDefault Accuracy = iota
	// BestForNavigation is the highest accuracy, using additional sensor data.
	BestForNavigation
	// Best is the best accuracy the hardware offers.
	Best
	// NearestTenMeters is accurate to within ten meters.
	NearestTenMeters
	// HundredMeters is accurate to within one hundred meters.
	HundredMeters
	// Kilometer is accurate to the nearest kilometer.
	Kilometer
	// ThreeKilometers is accurate to the nearest three kilometers.
	ThreeKilometers
)

// DefaultAccuracy is used when neither the caller nor the configuration
// picks one.
const DefaultAccuracy = ThreeKilometers

// Meters returns the provider threshold for the accuracy. The two best
// levels use the negative sentinels providers reserve for them.
func (a Accuracy) Meters() float64 {
	switch a {
	case BestForNavigation:
		return -2
	case Best:
		return -1
	case NearestTenMeters:
		return 10
	case HundredMeters:
		return 100
	case Kilometer:
		return 1000
	default:
		return 3000
	}
}

func (a Accuracy) String() string {
	switch a {
	case AccuracyDefault:
		return "default"
	case BestForNavigation:
		return "bestForNavigation"
	case Best:
		return "best"
	case NearestTenMeters:
		return "nearestTenMeters"
	case HundredMeters:
		return "hundredMeters"
	case Kilometer:
		return "kilometer"
	case ThreeKilometers:
		return "threeKilometers"
	default:
		return "unknown"
	}
}

// ParseAccuracy maps a name returned by String back to its Accuracy.
// An empty name yields AccuracyDefault.
func ParseAccuracy(name string) (Accuracy, bool) {
	switch name {
	case "", "default":
		return AccuracyDefault, true
	case "bestForNavigation":
		return BestForNavigation, true
	case "best":
		return Best, true
	case "nearestTenMeters":
		return NearestTenMeters, true
	case "hundredMeters":
		return HundredMeters, true
	case "kilometer":
		return Kilometer, true
	case "threeKilometers":
		return ThreeKilometers, true
	default:
		return AccuracyDefault, false
	}
}

// Authorization is the level of access asked for in a permission prompt.
type Authorization int

const (
	// AuthorizeAlways asks for foreground and background access.
	AuthorizeAlways Authorization = iota
	// AuthorizeWhenInUse asks for access while the app is in use.
	AuthorizeWhenInUse
)

func (a Authorization) String() string {
	if a == AuthorizeWhenInUse {
		return "When-in-use"
	}
	return "Always"
}

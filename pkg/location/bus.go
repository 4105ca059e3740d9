package location

// Topic names a notification channel on the Bus.
type Topic string

// Topics the Dealer publishes on. Payload types:
//
//	TopicCurrent        Result[Sample]
//	TopicUpdates        Result[[]Sample]
//	TopicError          *DealerError
//	TopicStatusChanged  AuthorizationStatus
const (
	TopicCurrent       Topic = "locationDealerCurrentNotification"
	TopicUpdates       Topic = "locationDealerUpdatesNotification"
	TopicError         Topic = "locationDealerErrorNotification"
	TopicStatusChanged Topic = "locationDealerStatusChangedNotification"
)

// Topics lists every topic the Dealer publishes on.
var Topics = []Topic{TopicCurrent, TopicUpdates, TopicError, TopicStatusChanged}

// Bus delivers notifications to observers. Publish is fire-and-forget.
type Bus interface {
	Publish(topic Topic, payload any)
}

// BusFunc adapts a function to the Bus interface.
type BusFunc func(topic Topic, payload any)

// Publish calls f(topic, payload).
func (f BusFunc) Publish(topic Topic, payload any) { f(topic, payload) }

// Metrics observes the Dealer. All methods must be safe for concurrent use
// and must not call back into the Dealer.
type Metrics interface {
	// RequestIssued counts a public request that reached the provider.
	RequestIssued(order Order)
	// OrderChanged reports the order now in effect.
	OrderChanged(order Order)
	// Published counts a notification; ok is false for failures.
	Published(topic Topic, ok bool)
	// ErrorSwallowed counts a provider error absorbed during a probe.
	ErrorSwallowed()
}

type noopMetrics struct{}

func (noopMetrics) RequestIssued(Order)   {}
func (noopMetrics) OrderChanged(Order)    {}
func (noopMetrics) Published(Topic, bool) {}
func (noopMetrics) ErrorSwallowed()       {}

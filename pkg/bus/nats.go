package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/go-drift/geodealer/pkg/errors"
	"github.com/go-drift/geodealer/pkg/location"
)

// DefaultSubjectPrefix is the subject prefix used when none is configured.
const DefaultSubjectPrefix = "geodealer"

// Publisher is the part of *nats.Conn the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS relays publications as JSON envelopes on <prefix>.<topic> subjects.
// Publish failures are reported with kind bus; they never reach the Dealer.
type NATS struct {
	conn   Publisher
	prefix string
	log    *logrus.Entry
	now    func() time.Time
	close  func()
}

// NATSOption configures a NATS relay.
type NATSOption func(*NATS)

// WithNATSLogger sets the relay's logger.
func WithNATSLogger(entry *logrus.Entry) NATSOption {
	return func(n *NATS) {
		if entry != nil {
			n.log = entry
		}
	}
}

// WithClock overrides the envelope timestamp source.
func WithClock(now func() time.Time) NATSOption {
	return func(n *NATS) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNATS wraps an existing connection. An empty prefix means
// DefaultSubjectPrefix.
func NewNATS(conn Publisher, prefix string, opts ...NATSOption) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	n := &NATS{
		conn:   conn,
		prefix: prefix,
		log:    logrus.NewEntry(logrus.StandardLogger()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.WithField("component", "bus.nats")
	return n
}

// ConnectNATS dials url and returns a relay owning the connection.
func ConnectNATS(url, prefix string, opts ...NATSOption) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("geodealer"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	n := NewNATS(conn, prefix, opts...)
	n.close = func() { _ = conn.Drain() }
	n.log.WithField("url", url).Info("nats relay connected")
	return n, nil
}

// Subject returns the subject a topic is relayed on.
func (n *NATS) Subject(topic location.Topic) string {
	return n.prefix + "." + string(topic)
}

// Publish implements location.Bus.
func (n *NATS) Publish(topic location.Topic, payload any) {
	subject := n.Subject(topic)
	data, err := json.Marshal(NewEnvelope(topic, payload, n.now()))
	if err == nil {
		err = n.conn.Publish(subject, data)
	}
	if err != nil {
		errors.Report(&errors.Error{
			Op:      "bus.nats.publish",
			Kind:    errors.KindBus,
			Channel: subject,
			Err:     err,
		})
		return
	}
	n.log.WithField("subject", subject).Debug("relayed")
}

// Close drains the connection when the relay owns it.
func (n *NATS) Close() {
	if n.close != nil {
		n.close()
	}
}

// Envelope is the JSON document relayed for each publication.
type Envelope struct {
	Topic       location.Topic `json:"topic"`
	OK          bool           `json:"ok"`
	Sample      *SampleJSON    `json:"sample,omitempty"`
	Samples     []SampleJSON   `json:"samples,omitempty"`
	Error       *ErrorJSON     `json:"error,omitempty"`
	Status      string         `json:"status,omitempty"`
	PublishedAt time.Time      `json:"publishedAt"`
}

// SampleJSON is the wire form of a location.Sample.
type SampleJSON struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorJSON is the wire form of a location.DealerError.
type ErrorJSON struct {
	Kind        string `json:"kind"`
	Permit      string `json:"permit,omitempty"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message"`
}

// NewEnvelope builds the envelope for a Dealer payload. Unknown payload types
// produce an envelope with only topic and time set.
func NewEnvelope(topic location.Topic, payload any, at time.Time) Envelope {
	env := Envelope{Topic: topic, PublishedAt: at.UTC()}
	switch p := payload.(type) {
	case location.Result[location.Sample]:
		env.OK = p.OK()
		if p.OK() {
			s := sampleJSON(p.Value())
			env.Sample = &s
		} else {
			env.Error = errorJSON(p.Err())
		}
	case location.Result[[]location.Sample]:
		env.OK = p.OK()
		if p.OK() {
			env.Samples = make([]SampleJSON, 0, len(p.Value()))
			for _, s := range p.Value() {
				env.Samples = append(env.Samples, sampleJSON(s))
			}
		} else {
			env.Error = errorJSON(p.Err())
		}
	case *location.DealerError:
		env.Error = errorJSON(p)
	case location.AuthorizationStatus:
		env.OK = true
		env.Status = p.String()
	}
	return env
}

func sampleJSON(s location.Sample) SampleJSON {
	f := s.Fix()
	return SampleJSON{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Altitude:  f.Altitude,
		Accuracy:  f.HorizontalAccuracy,
		Timestamp: f.Timestamp,
	}
}

func errorJSON(e *location.DealerError) *ErrorJSON {
	if e == nil {
		return nil
	}
	out := &ErrorJSON{
		Kind:        e.Kind.String(),
		Description: e.Description,
		Message:     e.Error(),
	}
	if e.Kind == location.NeedsPermission {
		out.Permit = e.Permit.String()
	}
	return out
}

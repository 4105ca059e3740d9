package errors

import (
	"github.com/sirupsen/logrus"
)

// LogHandler is a Handler that writes reports through logrus.
type LogHandler struct {
	// Logger receives the entries. Nil uses the logrus standard logger.
	Logger *logrus.Logger
	// Verbose adds stack traces to the logged fields.
	Verbose bool
}

func (h *LogHandler) logger() *logrus.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logrus.StandardLogger()
}

// HandleError logs an Error at error level.
func (h *LogHandler) HandleError(err *Error) {
	if err == nil {
		return
	}
	fields := logrus.Fields{
		"op":   err.Op,
		"kind": err.Kind.String(),
	}
	if err.Channel != "" {
		fields["channel"] = err.Channel
	}
	if h.Verbose && err.StackTrace != "" {
		fields["stack"] = err.StackTrace
	}
	h.logger().WithFields(fields).WithTime(err.Timestamp).Error(err.Err)
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	entry := h.logger().WithField("kind", KindPanic.String())
	if err.Op != "" {
		entry = entry.WithField("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry.WithTime(err.Timestamp).Errorf("recovered panic: %v", err.Value)
}

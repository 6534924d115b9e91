package transport

import (
	"log/slog"
	"time"
)

// Trace describes one request attempt. Failed attempts are recorded too:
// Status is zero and Err is set when the request never produced a response.
type Trace struct {
	Method       string
	URL          string
	Session      string
	Status       int
	Attempt      int
	Duration     time.Duration
	ResponseSize int
	Err          error
}

// TraceSink receives a Trace for every attempt a Client makes.
// Implementations must be safe for concurrent use.
type TraceSink interface {
	Record(Trace)
}

// slogSink is the default sink, logging traces at debug level.
type slogSink struct {
	logger *slog.Logger
}

func (s *slogSink) Record(t Trace) {
	attrs := []any{
		"method", t.Method,
		"url", t.URL,
		"status", t.Status,
		"attempt", t.Attempt,
		"duration", t.Duration,
	}
	if t.Session != "" {
		attrs = append(attrs, "session", t.Session)
	}
	if t.Err != nil {
		attrs = append(attrs, "error", t.Err)
		s.logger.Debug("store request attempt failed", attrs...)
		return
	}
	attrs = append(attrs, "response_size", t.ResponseSize)
	s.logger.Debug("store request attempt", attrs...)
}

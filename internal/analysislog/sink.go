/*
Package analysislog records one entry per AI invocation attempt.

Recording never blocks the caller and never fails it: entries go through a
bounded buffer to a single background writer, and anything that cannot be
buffered or written is logged and dropped.
*/
package analysislog

import (
	"context"
	"sync"
	"time"

	"Fitdiary/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const (
	DefaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Entry is append-only; it is never updated once written.
type Entry struct {
	ID              uuid.UUID
	UserID          string
	Operation       string
	TemplateID      *uuid.UUID
	TemplateVersion string
	Model           string
	RawResponse     *string
	ParsedResult    any
	TokensIn        *int
	TokensOut       *int
	SourceRef       *string
	Status          Status
	ErrorMessage    *string
	CreatedAt       time.Time
}

// Writer persists entries.
type Writer interface {
	Write(ctx context.Context, e Entry) error
}

type Sink struct {
	w       Writer
	entries chan Entry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSink starts the background writer. Call Close on shutdown to flush.
func NewSink(w Writer, bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s := &Sink{
		w:       w,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues e for writing and returns immediately.
func (s *Sink) Record(e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(e, "sink closed")
		return
	}
	select {
	case s.entries <- e:
	default:
		s.drop(e, "buffer full")
	}
}

// Close stops accepting entries and waits until buffered ones are written.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for e := range s.entries {
		// Detached from the originating request.
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.w.Write(ctx, e)
		cancel()
		if err != nil {
			metrics.AnalysisLogDroppedTotal.Inc()
			log.Error().Err(err).
				Str("user_id", e.UserID).
				Str("operation", e.Operation).
				Str("status", string(e.Status)).
				Msg("Failed to write AI analysis log")
		}
	}
}

func (s *Sink) drop(e Entry, reason string) {
	metrics.AnalysisLogDroppedTotal.Inc()
	log.Warn().
		Str("user_id", e.UserID).
		Str("operation", e.Operation).
		Str("reason", reason).
		Msg("AI analysis log entry dropped")
}

package analysislog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	block   chan struct{}
	ctxErrs []error
}

func (w *recordingWriter) Write(ctx context.Context, e Entry) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctxErrs = append(w.ctxErrs, ctx.Err())
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, e)
	return nil
}

func (w *recordingWriter) snapshot() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Entry(nil), w.entries...)
}

func TestSink_WritesAndFillsDefaults(t *testing.T) {
	w := &recordingWriter{}
	s := NewSink(w, 8)

	s.Record(Entry{UserID: "u1", Operation: "nutrition", Status: StatusSuccess})
	s.Record(Entry{UserID: "u2", Operation: "training", Status: StatusError})
	s.Close()

	got := w.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
	assert.Equal(t, StatusError, got[1].Status)
}

func TestSink_RecordNeverBlocks(t *testing.T) {
	w := &recordingWriter{block: make(chan struct{})}
	s := NewSink(w, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			s.Record(Entry{UserID: "u"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stalled writer")
	}

	close(w.block)
	s.Close()
	// One entry in flight plus one buffered; the rest were dropped.
	assert.LessOrEqual(t, len(w.snapshot()), 2)
}

func TestSink_WriterErrorsAreSwallowed(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	s := NewSink(w, 4)

	assert.NotPanics(t, func() {
		s.Record(Entry{UserID: "u"})
		s.Close()
	})
	assert.Empty(t, w.snapshot())
}

func TestSink_RecordAfterCloseIsDropped(t *testing.T) {
	w := &recordingWriter{}
	s := NewSink(w, 4)
	s.Close()
	s.Close()

	assert.NotPanics(t, func() { s.Record(Entry{UserID: "late"}) })
	assert.Empty(t, w.snapshot())
}

func TestSink_WritesUseLiveContext(t *testing.T) {
	w := &recordingWriter{}
	s := NewSink(w, 4)
	s.Record(Entry{UserID: "u"})
	s.Close()

	require.Len(t, w.ctxErrs, 1)
	assert.NoError(t, w.ctxErrs[0])
}

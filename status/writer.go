package status

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Writer receives Records as entities transition between states. Emit must
// be safe for concurrent use: Jobs in independent branches of a DAG may
// transition at the same time.
type Writer interface {
	Emit(r Record)
}

// StreamWriter writes one JSON-encoded Record per line to an underlying
// io.Writer, flushing immediately so a piped consumer sees progress as it
// happens rather than in bursts. Mirrors the single-writer, mutex-guarded
// design the rest of the corpus uses for its own event emitters, specialized
// here to the fixed wire format the status stream protocol requires.
type StreamWriter struct {
	mu sync.Mutex
	w  io.Writer
	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// NewStreamWriter returns a StreamWriter over w. A nil w defaults to os.Stdout.
func NewStreamWriter(w io.Writer) *StreamWriter {
	if w == nil {
		w = os.Stdout
	}
	return &StreamWriter{w: w, now: time.Now}
}

// Emit marshals r (stamping UpdatedAt if the caller left it zero) and writes
// it as a single JSON line.
func (s *StreamWriter) Emit(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.clearError()
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = s.now().UTC()
	} else {
		r.UpdatedAt = r.UpdatedAt.UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		// A Record that fails to marshal is a programmer error, not a
		// condition a downstream consumer can act on; drop it rather than
		// corrupt the stream with a partial line.
		return
	}
	data = append(data, '\n')
	_, _ = s.w.Write(data)
}

// NullWriter discards every Record. Useful when the caller only wants the
// side effects of Run/Flow and not the wire stream, or in tests that assert
// on return values rather than emitted output.
type NullWriter struct{}

func (NullWriter) Emit(Record) {}

// MultiWriter fans a Record out to every configured Writer in order. A
// nil/failed writer never blocks the others; Writer.Emit has no error
// return, so this exists purely to compose, e.g., a StreamWriter with a
// TracingWriter.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a MultiWriter over the given writers, skipping nils.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	filtered := make([]Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			filtered = append(filtered, w)
		}
	}
	return &MultiWriter{writers: filtered}
}

func (m *MultiWriter) Emit(r Record) {
	for _, w := range m.writers {
		w.Emit(r)
	}
}

package status

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStreamWriterEmitsOneJSONLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	w.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	w.Emit(Record{ID: "job-1", Kind: KindJob, Name: "build", Status: Running})
	w.Emit(Record{ID: "job-1", Kind: KindJob, Name: "build", Status: Success})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var r Record
	if err := json.Unmarshal([]byte(lines[0]), &r); err != nil {
		t.Fatalf("line 0 did not decode as Record: %v", err)
	}
	if r.Status != Running || r.Name != "build" {
		t.Fatalf("unexpected decoded record: %+v", r)
	}
	if r.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be stamped")
	}
}

func TestStreamWriterClearsStaleErrorOnNonFailedTransition(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	w.Emit(Record{ID: "a", Status: Success, Error: "leftover", ErrorKind: "leftover"})

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatalf("expected at least one line")
	}
	var r Record
	if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
		t.Fatal(err)
	}
	if r.Error != "" || r.ErrorKind != "" {
		t.Fatalf("expected error fields omitted, got %+v", r)
	}
}

func TestMultiWriterFansOutAndSkipsNil(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiWriter(NewStreamWriter(&a), nil, NewStreamWriter(&b))

	m.Emit(Record{ID: "x", Status: Pending})

	if a.Len() == 0 || b.Len() == 0 {
		t.Fatalf("expected both writers to receive the record")
	}
}

func TestNullWriterDiscards(t *testing.T) {
	var w NullWriter
	w.Emit(Record{ID: "whatever"}) // must not panic
}

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/flowrun/flowrun/status"
)

func TestTreeFeedOrdersParentThenChild(t *testing.T) {
	tr := NewTree()
	tr.Feed(status.Record{ID: "root", Kind: status.KindRoot, Name: "r", Status: status.Running})
	tr.Feed(status.Record{ID: "job-1", Kind: status.KindJob, Name: "build", ParentID: "root", Status: status.Success})

	var buf bytes.Buffer
	tr.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "[root] r: running") || !strings.Contains(out, "[job] build: success") {
		t.Fatalf("unexpected render output:\n%s", out)
	}
}

func TestTreeToleratesOutOfOrderParent(t *testing.T) {
	tr := NewTree()
	// Child arrives before its parent is ever seen.
	tr.Feed(status.Record{ID: "task-1", Kind: status.KindTask, Name: "t", ParentID: "job-1", Status: status.Running})
	tr.Feed(status.Record{ID: "job-1", Kind: status.KindJob, Name: "build", ParentID: "root", Status: status.Running})
	tr.Feed(status.Record{ID: "root", Kind: status.KindRoot, Name: "r", Status: status.Running})

	var buf bytes.Buffer
	tr.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "build") || !strings.Contains(out, "t") {
		t.Fatalf("expected both job and task to render once parents resolve:\n%s", out)
	}
}

func TestTreeReadFromSkipsMalformedLines(t *testing.T) {
	tr := NewTree()
	input := "not json\n" + `{"id":"a","kind":"job","name":"x","status":"success"}` + "\n"
	if err := tr.ReadFrom(strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	tr.Render(&buf)
	if !strings.Contains(buf.String(), "x: success") {
		t.Fatalf("expected valid line to still be rendered:\n%s", buf.String())
	}
}

func TestTreeSummaryListsOnlyFailures(t *testing.T) {
	tr := NewTree()
	tr.Feed(status.Record{ID: "a", Kind: status.KindJob, Name: "ok", Status: status.Success})
	tr.Feed(status.Record{ID: "b", Kind: status.KindJob, Name: "bad", Status: status.Failed, Error: "boom", ErrorKind: "TaskExecutionError"})

	var buf bytes.Buffer
	tr.Summary(&buf)
	out := buf.String()
	if strings.Contains(out, "ok") {
		t.Fatalf("did not expect successful job in summary:\n%s", out)
	}
	if !strings.Contains(out, "bad") || !strings.Contains(out, "boom") {
		t.Fatalf("expected failure summary for bad job:\n%s", out)
	}
}

func TestTreeCacheMarkerFromIsCache(t *testing.T) {
	tr := NewTree()
	tr.Feed(status.Record{ID: "a", Kind: status.KindJob, Name: "cached", Status: status.Success, OriginID: "other"})

	var buf bytes.Buffer
	tr.Render(&buf)
	if !strings.Contains(buf.String(), "(cached)") {
		t.Fatalf("expected cache marker, got:\n%s", buf.String())
	}
}

package symbol

import (
	"testing"
	"time"
)

func TestExportPprofDeduplicatesFrames(t *testing.T) {
	tree := NewCallTree()
	main := Frame{Function: "main", File: "main.go", Line: 10}
	foo := Frame{Function: "foo", File: "foo.go", Line: 20}

	tree.Ingest([]Frame{main, foo}, 100)
	tree.Ingest([]Frame{main, foo}, 50)

	start := time.Unix(1000, 0)
	end := start.Add(time.Second)
	prof := ExportPprof(tree, start, end, "nanoseconds")

	if len(prof.Function) != 2 {
		t.Fatalf("len(Function) = %d, want 2", len(prof.Function))
	}
	if len(prof.Location) != 2 {
		t.Fatalf("len(Location) = %d, want 2", len(prof.Location))
	}
	if len(prof.Sample) != 2 {
		t.Fatalf("len(Sample) = %d, want 2", len(prof.Sample))
	}
	for _, s := range prof.Sample {
		if len(s.Location) == 0 {
			t.Fatal("sample has no locations")
		}
	}
}

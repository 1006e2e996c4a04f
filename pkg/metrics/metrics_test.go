package metrics

import (
	"testing"

	"github.com/0b01/tail2-go/pkg/pywalk"
	"github.com/0b01/tail2-go/pkg/unwind"
)

func TestCountersIncAndSnapshot(t *testing.T) {
	c := New()
	c.Inc(SentStackCount)
	c.Inc(SentStackCount)
	c.Add(ErrUnwindDidNotAdvance, 3)

	if got := c.Get(SentStackCount); got != 2 {
		t.Fatalf("SentStackCount = %d, want 2", got)
	}

	snap := c.Snapshot()
	if snap["SentStackCount"] != 2 {
		t.Fatalf("snapshot SentStackCount = %d, want 2", snap["SentStackCount"])
	}
	if snap["ErrUnwindDidNotAdvance"] != 3 {
		t.Fatalf("snapshot ErrUnwindDidNotAdvance = %d, want 3", snap["ErrUnwindDidNotAdvance"])
	}
	if _, ok := snap["ErrPyNone"]; ok {
		t.Fatal("zero-valued counters should be omitted from the snapshot")
	}
}

func TestFromWalkErrorCoversEveryKind(t *testing.T) {
	kinds := []unwind.WalkErrorKind{
		unwind.InvalidRule,
		unwind.CouldNotReadStack,
		unwind.FramepointerUnwindingMovedBackwards,
		unwind.DidNotAdvance,
		unwind.IntegerOverflow,
		unwind.ReturnAddressIsNull,
	}
	seen := map[ID]bool{}
	for _, k := range kinds {
		id := FromWalkError(k)
		if seen[id] {
			t.Fatalf("kind %v mapped to an ID already used by another kind", k)
		}
		seen[id] = true
	}
}

func TestFromPywalkCauseRoundTrips(t *testing.T) {
	if id := FromPywalkCause(pywalk.CauseEmptyStack); id != ErrPyEmptyStack {
		t.Fatalf("FromPywalkCause(CauseEmptyStack) = %v, want ErrPyEmptyStack", id)
	}
	if id := FromPywalkCause(pywalk.CauseNone); id != ErrPyNone {
		t.Fatalf("FromPywalkCause(CauseNone) = %v, want ErrPyNone", id)
	}
}

package unwind

import "testing"

func TestRuleEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Rule{
		{Kind: KindInvalid},
		{Kind: KindNoOp},
		{Kind: KindOffsetSp, K: 2},
		{Kind: KindOffsetSpFirstFrame, K: -1},
		{Kind: KindOffsetSpAndRestoreReturn, K: 4, A: -1},
		{Kind: KindOffsetSpAndRestoreFrameAndReturn, K: 4, A: -1, B: -2},
		{Kind: KindUseFramePointer},
		{Kind: KindUseFramePointerWithOffsets, K: 16, A: -8, B: -16},
	}
	for _, c := range cases {
		got := DecodeRule(c.Encode())
		if got != c {
			t.Errorf("round-trip of %+v produced %+v", c, got)
		}
	}
}

func TestRuleSizeBudget(t *testing.T) {
	var r Rule
	if len(r.Encode()) > 16 {
		t.Fatalf("encoded rule is %d bytes, want <= 16", len(r.Encode()))
	}
}

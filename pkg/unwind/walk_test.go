package unwind

import "testing"

type fakeMemory map[uint64]uint64

func (m fakeMemory) ReadUint64(addr uint64) (uint64, bool) {
	v, ok := m[addr]
	return v, ok
}

func TestWalkAmd64TwoFrames(t *testing.T) {
	// Two leaf-style frames chained by OffsetSpAndRestoreReturn: each
	// frame pushes 16 bytes of CFA offset and stores its return
	// address at cfa-8.
	table, err := NewTable([]Row{
		{Addr: 0x1000, Rule: Rule{Kind: KindOffsetSpAndRestoreReturn, K: 2, A: -1}}, // cfa = sp+16
		{Addr: 0x2000, Rule: Rule{Kind: KindOffsetSpFirstFrame, K: 1}},              // caller is a leaf
	})
	if err != nil {
		t.Fatal(err)
	}
	mem := fakeMemory{
		0x7000 + 16 - 8: 0x2000, // return address stored one slot below the new sp
	}
	frames, err := Walk(table, mem, 8, 0x7000, 0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[0].PC != 0x1000 || frames[1].PC != 0x2000 {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestWalkArm64FramePointerChain(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0x1000, Rule: Rule{Kind: KindUseFramePointer}},
		{Addr: 0x2000, Rule: Rule{Kind: KindNoOpFirstFrame}},
	})
	if err != nil {
		t.Fatal(err)
	}
	fp := uint64(0x8000)
	mem := fakeMemory{
		fp:     0x9000, // saved caller fp (higher address: stack grows down)
		fp + 8: 0x2000, // saved return address
	}
	frames, err := Walk(table, mem, 16, 0x8000, fp, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[1].PC != 0x2000 {
		t.Fatalf("frames = %+v", frames)
	}
}

// TestWalkX86_64JustReturnChain reproduces an x86_64 walk across three
// frame-pointer-linked frames following a first-frame OffsetSp step,
// ending at a null saved return address.
func TestWalkX86_64JustReturnChain(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0x100400, Rule: Rule{Kind: KindOffsetSpFirstFrame, K: 1}},
		{Addr: 0x100300, Rule: Rule{Kind: KindUseFramePointer}},
		{Addr: 0x100200, Rule: Rule{Kind: KindUseFramePointer}},
		{Addr: 0x100100, Rule: Rule{Kind: KindUseFramePointer}},
	})
	if err != nil {
		t.Fatal(err)
	}
	mem := fakeMemory{
		0x10: 0x100300,
		0x20: 0x40,
		0x28: 0x100200,
		0x40: 0x70,
		0x48: 0x100100,
		0x70: 0x0,
		0x78: 0x0,
	}
	frames, err := Walk(table, mem, 8, 0x10, 0x20, 0x100400)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0x100400, 0x100300, 0x100200, 0x100100}
	if len(frames) != len(want) {
		t.Fatalf("frames = %+v, want %v", frames, want)
	}
	for i, pc := range want {
		if frames[i].PC != pc {
			t.Fatalf("frames[%d].PC = %#x, want %#x", i, frames[i].PC, pc)
		}
	}
}

// TestWalkArm64UseFramePointerFirstFrame reproduces a single AArch64
// UseFramePointer step off the sampled registers, including the
// first-frame exemption from the forward-progress checks.
func TestWalkArm64UseFramePointerFirstFrame(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0xAA00, Rule: Rule{Kind: KindUseFramePointer}},
	})
	if err != nil {
		t.Fatal(err)
	}
	mem := fakeMemory{
		0x1100: 0x200,
		0x1108: 0xABCD0,
		0x200:  0,
		0x208:  0,
	}
	frames, err := Walk(table, mem, 16, 0x1000, 0x1100, 0xAA00)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[0].PC != 0xAA00 || frames[1].PC != 0xABCD0 {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestWalkBelowFirstRowUsesFirstRow(t *testing.T) {
	// pc starts below the table's only row; Lookup clamps to that row
	// instead of reporting no coverage.
	table, err := NewTable([]Row{
		{Addr: 0x2000, Rule: Rule{Kind: KindOffsetSpFirstFrame, K: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	mem := fakeMemory{0x10: 0x3000}
	frames, err := Walk(table, mem, 8, 0x10, 0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[0].PC != 0x1000 || frames[1].PC != 0x3000 {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestWalkIntegerOverflow(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0x1000, Rule: Rule{Kind: KindOffsetSpAndRestoreReturn, K: -32000, A: -1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Walk(table, fakeMemory{}, 8, 0x10, 0, 0x1000)
	we, ok := err.(*WalkError)
	if !ok || we.Kind != IntegerOverflow {
		t.Fatalf("err = %v, want IntegerOverflow", err)
	}
}

// TestWalkIntegerOverflowUnsignedWrap exercises the positive-delta
// overflow branch directly: rsp at the top of the address space plus a
// positive offset wraps past uint64's range instead of landing on a
// small, bogus address.
func TestWalkIntegerOverflowUnsignedWrap(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0x1000, Rule: Rule{Kind: KindOffsetSpFirstFrame, K: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	rsp := ^uint64(0) &^ 7
	_, err = Walk(table, fakeMemory{}, 8, rsp, ^uint64(0), 0x1000)
	we, ok := err.(*WalkError)
	if !ok || we.Kind != IntegerOverflow {
		t.Fatalf("err = %v, want IntegerOverflow", err)
	}
}

func TestWalkCouldNotReadStack(t *testing.T) {
	table, err := NewTable([]Row{
		{Addr: 0x1000, Rule: Rule{Kind: KindOffsetSpAndRestoreReturn, K: 2, A: -1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	frames, err := Walk(table, fakeMemory{}, 8, 0x7000, 0, 0x1000)
	we, ok := err.(*WalkError)
	if !ok || we.Kind != CouldNotReadStack {
		t.Fatalf("err = %v, want CouldNotReadStack", err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %+v, want only the initial frame", frames)
	}
}

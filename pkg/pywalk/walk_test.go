package pywalk

import (
	"testing"

	"github.com/0b01/tail2-go/pkg/pyoffsets"
)

type fakeMemory struct {
	u64   map[uint64]uint64
	bytes map[uint64]byte
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{u64: map[uint64]uint64{}, bytes: map[uint64]byte{}}
}

func (m *fakeMemory) ReadUint64(addr uint64) (uint64, bool) {
	v, ok := m.u64[addr]
	return v, ok
}

func (m *fakeMemory) ReadBytes(addr uint64, n int) ([]byte, bool) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, ok := m.bytes[addr+uint64(i)]
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}

func (m *fakeMemory) putString(addr uint64, s string) {
	for i, c := range []byte(s) {
		m.bytes[addr+uint64(i)] = c
	}
}

func TestFindThreadStateWalksList(t *testing.T) {
	off, _ := pyoffsets.Lookup(3, 8)
	mem := newFakeMemory()
	const interp, head, t1, t2 = 0x1000, 0x2000, 0x3000, 0x4000
	mem.u64[interp+uint64(off.PyInterpreterState.TstateHead)] = head
	mem.u64[head+uint64(off.PyThreadState.Thread)] = 111
	mem.u64[head+uint64(off.PyThreadState.Next)] = t1
	mem.u64[t1+uint64(off.PyThreadState.Thread)] = 222
	mem.u64[t1+uint64(off.PyThreadState.Next)] = t2
	mem.u64[t2+uint64(off.PyThreadState.Thread)] = 333
	mem.u64[t2+uint64(off.PyThreadState.Next)] = 0

	addr, cause := FindThreadState(mem, off, interp, 222)
	if cause != CauseNone || addr != t1 {
		t.Fatalf("FindThreadState = %#x, %v", addr, cause)
	}

	if _, cause := FindThreadState(mem, off, interp, 999); cause != CauseThreadStateNotFound {
		t.Fatalf("cause = %v, want ThreadStateNotFound", cause)
	}
	if _, cause := FindThreadState(mem, off, 0, 1); cause != CauseInterpreterNull {
		t.Fatalf("cause = %v, want InterpreterNull", cause)
	}
}

func TestWalkFramesComplete(t *testing.T) {
	off, _ := pyoffsets.Lookup(3, 8)
	mem := newFakeMemory()
	const tstate, frame1, frame2, code1, code2, name1Obj, name2Obj, file1Obj, file2Obj = 0x100, 0x200, 0x300, 0x400, 0x500, 0x600, 0x700, 0x800, 0x900

	mem.u64[tstate+uint64(off.PyThreadState.Frame)] = frame1

	mem.u64[frame1+uint64(off.PyFrameObject.FCode)] = code1
	mem.u64[frame1+uint64(off.PyFrameObject.FLineno)] = 10
	mem.u64[frame1+uint64(off.PyFrameObject.FBack)] = frame2
	mem.u64[code1+uint64(off.PyCodeObject.CoName)] = name1Obj
	mem.u64[code1+uint64(off.PyCodeObject.CoFilename)] = file1Obj
	mem.u64[name1Obj+uint64(off.String.Size)] = 4
	mem.putString(name1Obj+uint64(off.String.Data), "leaf")
	mem.u64[file1Obj+uint64(off.String.Size)] = 6
	mem.putString(file1Obj+uint64(off.String.Data), "a.py")

	mem.u64[frame2+uint64(off.PyFrameObject.FCode)] = code2
	mem.u64[frame2+uint64(off.PyFrameObject.FLineno)] = 20
	mem.u64[frame2+uint64(off.PyFrameObject.FBack)] = 0
	mem.u64[code2+uint64(off.PyCodeObject.CoName)] = name2Obj
	mem.u64[code2+uint64(off.PyCodeObject.CoFilename)] = file2Obj
	mem.u64[name2Obj+uint64(off.String.Size)] = 4
	mem.putString(name2Obj+uint64(off.String.Data), "main")
	mem.u64[file2Obj+uint64(off.String.Size)] = 6
	mem.putString(file2Obj+uint64(off.String.Data), "a.py")

	frames, status, cause := WalkFrames(mem, off, tstate)
	if status != StatusComplete || cause != CauseNone {
		t.Fatalf("status=%v cause=%v", status, cause)
	}
	if len(frames) != 2 || frames[0].Name != "leaf" || frames[1].Name != "main" {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestWalkFramesEmptyStack(t *testing.T) {
	off, _ := pyoffsets.Lookup(3, 8)
	mem := newFakeMemory()
	mem.u64[0x100+uint64(off.PyThreadState.Frame)] = 0
	_, status, cause := WalkFrames(mem, off, 0x100)
	if status != StatusError || cause != CauseEmptyStack {
		t.Fatalf("status=%v cause=%v, want Error/EmptyStack", status, cause)
	}
}

func TestWalkFramesPy310FallsBackToCString(t *testing.T) {
	off, _ := pyoffsets.Lookup(3, 10)
	if off.String.Size != -1 {
		t.Fatal("expected 3.10 offsets to leave String.Size unresolved")
	}
	mem := newFakeMemory()
	const tstate, frame, code, nameObj = 0x10, 0x20, 0x30, 0x40
	mem.u64[tstate+uint64(off.PyThreadState.Frame)] = frame
	mem.u64[frame+uint64(off.PyFrameObject.FCode)] = code
	mem.u64[frame+uint64(off.PyFrameObject.FLineno)] = 1
	mem.u64[frame+uint64(off.PyFrameObject.FBack)] = 0
	mem.u64[code+uint64(off.PyCodeObject.CoName)] = nameObj
	mem.putString(nameObj+uint64(off.String.Data), "run\x00")

	frames, status, cause := WalkFrames(mem, off, tstate)
	if status != StatusComplete || cause != CauseNone {
		t.Fatalf("status=%v cause=%v", status, cause)
	}
	if len(frames) != 1 || frames[0].Name != "run" {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestResolveNativeThreadID(t *testing.T) {
	mem := newFakeMemory()
	offsets := DefaultTLSOffsets()
	const tlsBase = 0x7f0000
	mem.u64[tlsBase+uint64(offsets.GlibcSelfOffset)] = 4242
	tid, ok := ResolveNativeThreadID(mem, tlsBase, PthreadsGlibc, offsets)
	if !ok || tid != 4242 {
		t.Fatalf("ResolveNativeThreadID = %d, %v", tid, ok)
	}
}

package sample

import "testing"

func TestPidTgidEqualityIgnoresPid(t *testing.T) {
	a := NewPidTgid(111, 42)
	b := NewPidTgid(222, 42)
	if !a.Equal(b) {
		t.Fatal("PidTgids with the same tgid but different pid should be equal")
	}
	if a.Pid() == b.Pid() {
		t.Fatal("test setup is broken: pids should differ")
	}
	if a.Tgid() != 42 || b.Tgid() != 42 {
		t.Fatalf("Tgid() = %d, %d, want 42, 42", a.Tgid(), b.Tgid())
	}
}

func TestPidTgidString(t *testing.T) {
	p := NewPidTgid(7, 3)
	if got, want := p.String(), "7:3"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestEncodeDecodeRoundTripWithoutPython(t *testing.T) {
	var ns NativeStack
	ns.Addrs[0] = 0x400000
	ns.Addrs[1] = 0x400100
	ns.Len = 2
	ns.Success = true

	in := BpfSample{
		PidTgid:        NewPidTgid(100, 50),
		TimestampNanos: 123456789,
		KernelStackID:  -1,
		NativeStack:    ns,
		Idx:            9,
	}

	b, err := EncodeBytes(in)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	if len(b) != WireSize {
		t.Fatalf("encoded length = %d, want %d", len(b), WireSize)
	}

	out, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if out.PidTgid != in.PidTgid || out.TimestampNanos != in.TimestampNanos || out.KernelStackID != in.KernelStackID || out.Idx != in.Idx {
		t.Fatalf("decoded scalar fields = %+v, want %+v", out, in)
	}
	if out.NativeStack.Len != 2 || out.NativeStack.Addrs[0] != 0x400000 || out.NativeStack.Addrs[1] != 0x400100 {
		t.Fatalf("decoded native stack = %+v", out.NativeStack)
	}
	if out.PythonStack != nil {
		t.Fatal("expected no python stack")
	}
}

func TestEncodeDecodeRoundTripWithPython(t *testing.T) {
	var py PythonStack
	copy(py.Frames[0].Name[:], "run")
	copy(py.Frames[0].File[:], "app.py")
	py.Frames[0].Lineno = 42
	py.Len = 1
	py.Status = PythonStackComplete

	in := BpfSample{
		PidTgid:     NewPidTgid(1, 1),
		PythonStack: &py,
	}

	b, err := EncodeBytes(in)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	out, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if out.PythonStack == nil {
		t.Fatal("expected a python stack")
	}
	if out.PythonStack.Len != 1 || out.PythonStack.Status != PythonStackComplete {
		t.Fatalf("python stack = %+v", out.PythonStack)
	}
	f := out.PythonStack.Frames[0]
	if f.NameString() != "run" || f.FileString() != "app.py" || f.Lineno != 42 {
		t.Fatalf("frame = %+v", f)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error decoding a truncated record")
	}
}

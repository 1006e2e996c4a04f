package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire layout is fixed-width and little-endian throughout, matching
// the layout the eBPF side writes into the ring buffer: every record
// has a constant size regardless of how many frames it actually
// populated, with a length field telling the reader how much of the
// frame buffer to trust.

const (
	nativeStackWireSize = MaxNativeFrames*8 + 4 + 1
	pythonFrameWireSize = 4 + ClassNameLen + FunctionNameLen + FileNameLen
	pythonStackWireSize = MaxPythonFrames*pythonFrameWireSize + 4 + 1
	bpfSampleWireSize   = 8 + 8 + 8 + nativeStackWireSize + 1 + pythonStackWireSize + 8
)

// WireSize is the constant encoded size of a BpfSample.
const WireSize = bpfSampleWireSize

func writeNativeStack(w io.Writer, s NativeStack) error {
	if err := binary.Write(w, binary.LittleEndian, s.Addrs); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.Len)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, boolByte(s.Success))
}

func readNativeStack(r io.Reader) (NativeStack, error) {
	var s NativeStack
	if err := binary.Read(r, binary.LittleEndian, &s.Addrs); err != nil {
		return s, err
	}
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return s, err
	}
	s.Len = int(length)
	var success byte
	if err := binary.Read(r, binary.LittleEndian, &success); err != nil {
		return s, err
	}
	s.Success = success != 0
	if s.Len > MaxNativeFrames {
		return s, fmt.Errorf("sample: native stack length %d exceeds %d", s.Len, MaxNativeFrames)
	}
	return s, nil
}

func writePythonFrame(w io.Writer, f PythonFrameSymbol) error {
	if err := binary.Write(w, binary.LittleEndian, f.Lineno); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.ClassName); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.Name); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.File)
}

func readPythonFrame(r io.Reader) (PythonFrameSymbol, error) {
	var f PythonFrameSymbol
	if err := binary.Read(r, binary.LittleEndian, &f.Lineno); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.ClassName); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.Name); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.File); err != nil {
		return f, err
	}
	return f, nil
}

func writePythonStack(w io.Writer, s PythonStack) error {
	for i := range s.Frames {
		if err := writePythonFrame(w, s.Frames[i]); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.Len)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint8(s.Status))
}

func readPythonStack(r io.Reader) (PythonStack, error) {
	var s PythonStack
	for i := range s.Frames {
		f, err := readPythonFrame(r)
		if err != nil {
			return s, err
		}
		s.Frames[i] = f
	}
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return s, err
	}
	s.Len = int(length)
	var status uint8
	if err := binary.Read(r, binary.LittleEndian, &status); err != nil {
		return s, err
	}
	s.Status = PythonStackStatus(status)
	if s.Len > MaxPythonFrames {
		return s, fmt.Errorf("sample: python stack length %d exceeds %d", s.Len, MaxPythonFrames)
	}
	return s, nil
}

// Encode writes s in its fixed-width wire format.
func Encode(w io.Writer, s BpfSample) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(s.PidTgid)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, s.TimestampNanos); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, s.KernelStackID); err != nil {
		return err
	}
	if err := writeNativeStack(w, s.NativeStack); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, boolByte(s.PythonStack != nil)); err != nil {
		return err
	}
	var py PythonStack
	if s.PythonStack != nil {
		py = *s.PythonStack
	}
	if err := writePythonStack(w, py); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, s.Idx)
}

// Decode reads one fixed-width BpfSample record from r.
func Decode(r io.Reader) (BpfSample, error) {
	var s BpfSample
	var pidtgid uint64
	if err := binary.Read(r, binary.LittleEndian, &pidtgid); err != nil {
		return s, err
	}
	s.PidTgid = PidTgid(pidtgid)
	if err := binary.Read(r, binary.LittleEndian, &s.TimestampNanos); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.KernelStackID); err != nil {
		return s, err
	}
	native, err := readNativeStack(r)
	if err != nil {
		return s, err
	}
	s.NativeStack = native
	var hasPython byte
	if err := binary.Read(r, binary.LittleEndian, &hasPython); err != nil {
		return s, err
	}
	py, err := readPythonStack(r)
	if err != nil {
		return s, err
	}
	if hasPython != 0 {
		s.PythonStack = &py
	}
	if err := binary.Read(r, binary.LittleEndian, &s.Idx); err != nil {
		return s, err
	}
	return s, nil
}

// EncodeBytes encodes s into a freshly allocated WireSize-byte slice.
func EncodeBytes(s BpfSample) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, WireSize))
	if err := Encode(buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes decodes a single BpfSample from a byte slice produced by
// EncodeBytes or read directly from a ring buffer record.
func DecodeBytes(b []byte) (BpfSample, error) {
	return Decode(bytes.NewReader(b))
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

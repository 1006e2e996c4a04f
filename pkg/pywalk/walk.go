// Package pywalk implements the CPython in-process frame walker: it
// locates the PyThreadState matching a sampled native thread, then
// walks the PyFrameObject.f_back chain, bounded to ProgramCount
// passes of FramesPerProgram frames each. bpf/tail2.bpf.c sizes its
// Python stack buffer with the same bounds (PYTHON_PROGRAM_COUNT,
// PYTHON_FRAMES_PER_PROGRAM) but does not perform this walk.
package pywalk

import "github.com/0b01/tail2-go/pkg/pyoffsets"

const (
	FramesPerProgram = 16
	ProgramCount      = 5
	MaxStackDepth     = FramesPerProgram * ProgramCount

	ClassNameLen    = 32
	FunctionNameLen = 64
	FileNameLen     = 256

	// MaxThreadScan bounds the PyThreadState linked-list search.
	MaxThreadScan = 1024
)

// Cause enumerates every reason the walker fails to produce a
// complete Python stack trace.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseMissingPyState
	CauseThreadStateNull
	CauseInterpreterNull
	CauseTooManyThreads
	CauseThreadStateNotFound
	CauseEmptyStack
	CauseFrameCodeIsNull
	CauseBadFSBase
	CauseInvalidPthreadsImpl
	CauseThreadStateHeadNull
	CauseBadThreadState
	CauseCallFailed
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "None"
	case CauseMissingPyState:
		return "MissingPyState"
	case CauseThreadStateNull:
		return "ThreadStateNull"
	case CauseInterpreterNull:
		return "InterpreterNull"
	case CauseTooManyThreads:
		return "TooManyThreads"
	case CauseThreadStateNotFound:
		return "ThreadStateNotFound"
	case CauseEmptyStack:
		return "EmptyStack"
	case CauseFrameCodeIsNull:
		return "FrameCodeIsNull"
	case CauseBadFSBase:
		return "BadFSBase"
	case CauseInvalidPthreadsImpl:
		return "InvalidPthreadsImpl"
	case CauseThreadStateHeadNull:
		return "ThreadStateHeadNull"
	case CauseBadThreadState:
		return "BadThreadState"
	case CauseCallFailed:
		return "CallFailed"
	default:
		return "Unknown"
	}
}

// Status is the overall outcome of a stack walk.
type Status uint8

const (
	StatusComplete Status = iota
	StatusError
	StatusTruncated
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "Complete"
	case StatusError:
		return "Error"
	case StatusTruncated:
		return "Truncated"
	default:
		return "Unknown"
	}
}

// PthreadsImpl identifies the POSIX threads implementation linked
// into the target process, which determines where in the TLS block
// the native thread id lives.
type PthreadsImpl uint8

const (
	PthreadsGlibc PthreadsImpl = iota
	PthreadsMusl
)

// TLSOffsets are the process-independent, libc/kernel-version
// dependent offsets used to resolve a sampled task's native thread id
// and TLS base. Defaults match glibc/musl on a mainline 6.x kernel;
// callers may override any field from configuration when a target
// deviates (the AArch64 fields in particular have moved across kernel
// versions).
type TLSOffsets struct {
	// GlibcSelfOffset is the offset from tls_base to tcbhead_t.self.
	GlibcSelfOffset int64
	// MuslSelfOffset is the offset from tls_base to the pthread
	// descriptor pointer; musl stores it at the base itself.
	MuslSelfOffset int64
	// AArch64ThreadOffset is offsetof(task_struct, thread).
	AArch64ThreadOffset int64
	// AArch64UwTpValueOffset is offsetof(thread_struct.uw, tp_value).
	AArch64UwTpValueOffset int64
}

// DefaultTLSOffsets returns the offsets observed on mainline glibc,
// musl, and a 6.x AArch64 kernel.
func DefaultTLSOffsets() TLSOffsets {
	return TLSOffsets{
		GlibcSelfOffset:         0x10,
		MuslSelfOffset:          0,
		AArch64ThreadOffset:     0x310,
		AArch64UwTpValueOffset:  0x18,
	}
}

// Memory is the bounded, never-panicking memory access the walker
// needs.
type Memory interface {
	ReadUint64(addr uint64) (uint64, bool)
	ReadBytes(addr uint64, n int) ([]byte, bool)
}

// ResolveTLSBaseAArch64 reads a process's TLS base pointer out of its
// task_struct, for kernels/architectures where it isn't otherwise
// directly available to the sampling probe.
func ResolveTLSBaseAArch64(mem Memory, taskStructAddr uint64, offsets TLSOffsets) (uint64, bool) {
	addr := taskStructAddr + uint64(offsets.AArch64ThreadOffset) + uint64(offsets.AArch64UwTpValueOffset)
	return mem.ReadUint64(addr)
}

// ResolveNativeThreadID reads the native thread id out of a TLS
// block, using the layout for the given libc implementation.
func ResolveNativeThreadID(mem Memory, tlsBase uint64, impl PthreadsImpl, offsets TLSOffsets) (uint64, bool) {
	switch impl {
	case PthreadsGlibc:
		return mem.ReadUint64(tlsBase + uint64(offsets.GlibcSelfOffset))
	case PthreadsMusl:
		return mem.ReadUint64(tlsBase + uint64(offsets.MuslSelfOffset))
	default:
		return 0, false
	}
}

// FindThreadState walks the PyInterpreterState's thread-state list
// looking for the PyThreadState whose thread field matches
// nativeTID. The scan is bounded by MaxThreadScan.
func FindThreadState(mem Memory, offsets pyoffsets.Offsets, interpAddr, nativeTID uint64) (uint64, Cause) {
	if interpAddr == 0 {
		return 0, CauseInterpreterNull
	}
	head, ok := mem.ReadUint64(interpAddr + uint64(offsets.PyInterpreterState.TstateHead))
	if !ok {
		return 0, CauseBadThreadState
	}
	if head == 0 {
		return 0, CauseThreadStateHeadNull
	}
	cur := head
	for i := 0; i < MaxThreadScan; i++ {
		if cur == 0 {
			return 0, CauseThreadStateNotFound
		}
		threadVal, ok := mem.ReadUint64(cur + uint64(offsets.PyThreadState.Thread))
		if !ok {
			return 0, CauseBadThreadState
		}
		if threadVal == nativeTID {
			return cur, CauseNone
		}
		next, ok := mem.ReadUint64(cur + uint64(offsets.PyThreadState.Next))
		if !ok {
			return 0, CauseBadThreadState
		}
		cur = next
	}
	return 0, CauseTooManyThreads
}

// Frame is one resolved Python stack frame.
type Frame struct {
	Name    string
	File    string
	Lineno  uint32
}

// WalkFrames walks the f_back chain of the PyFrameObject the given
// PyThreadState currently points at, resolving each frame's code
// object name, filename, and line number. The walk is bounded by
// MaxStackDepth, the same bound as the PYTHON_STACK_MAX_LEN buffer in
// bpf/tail2.bpf.c.
func WalkFrames(mem Memory, offsets pyoffsets.Offsets, tstateAddr uint64) ([]Frame, Status, Cause) {
	frameAddr, ok := mem.ReadUint64(tstateAddr + uint64(offsets.PyThreadState.Frame))
	if !ok {
		return nil, StatusError, CauseBadThreadState
	}
	if frameAddr == 0 {
		return nil, StatusError, CauseEmptyStack
	}

	var frames []Frame
	cur := frameAddr
	for i := 0; i < MaxStackDepth; i++ {
		if cur == 0 {
			return frames, StatusComplete, CauseNone
		}
		codeAddr, ok := mem.ReadUint64(cur + uint64(offsets.PyFrameObject.FCode))
		if !ok {
			return frames, StatusError, CauseBadThreadState
		}
		if codeAddr == 0 {
			return frames, StatusError, CauseFrameCodeIsNull
		}
		linenoRaw, ok := mem.ReadUint64(cur + uint64(offsets.PyFrameObject.FLineno))
		if !ok {
			return frames, StatusError, CauseBadThreadState
		}

		name, _ := resolveCodeField(mem, offsets, codeAddr, offsets.PyCodeObject.CoName)
		file, _ := resolveCodeField(mem, offsets, codeAddr, offsets.PyCodeObject.CoFilename)
		frames = append(frames, Frame{Name: name, File: file, Lineno: uint32(linenoRaw)})

		next, ok := mem.ReadUint64(cur + uint64(offsets.PyFrameObject.FBack))
		if !ok {
			return frames, StatusError, CauseBadThreadState
		}
		cur = next
	}
	return frames, StatusTruncated, CauseNone
}

func resolveCodeField(mem Memory, offsets pyoffsets.Offsets, codeAddr uint64, fieldOffset int64) (string, bool) {
	objAddr, ok := mem.ReadUint64(codeAddr + uint64(fieldOffset))
	if !ok || objAddr == 0 {
		return "", false
	}
	return resolveString(mem, offsets, objAddr)
}

func resolveString(mem Memory, offsets pyoffsets.Offsets, objAddr uint64) (string, bool) {
	if offsets.String.Size >= 0 {
		sizeVal, ok := mem.ReadUint64(objAddr + uint64(offsets.String.Size))
		if !ok {
			return "", false
		}
		n := int(int32(sizeVal))
		if n < 0 {
			n = -n
		}
		if n > FileNameLen {
			n = FileNameLen
		}
		data, ok := mem.ReadBytes(objAddr+uint64(offsets.String.Data), n)
		if !ok {
			return "", false
		}
		return string(data), true
	}
	// String.Size is unresolved on this version: fall back to a
	// bounded NUL-terminated read.
	return readCString(mem, objAddr+uint64(offsets.String.Data), FileNameLen)
}

func readCString(mem Memory, addr uint64, maxLen int) (string, bool) {
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		b, ok := mem.ReadBytes(addr+uint64(i), 1)
		if !ok {
			return "", false
		}
		if b[0] == 0 {
			return string(buf), true
		}
		buf = append(buf, b[0])
	}
	return string(buf), true
}

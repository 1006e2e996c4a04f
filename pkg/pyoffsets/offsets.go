// Package pyoffsets holds per-CPython-version struct layout offsets.
// CPython does not export stable ABI offsets for the structs the
// in-process frame walker needs (PyThreadState, PyFrameObject,
// PyCodeObject, ...), so the offsets below were measured against each
// interpreter release the way tail2's original offsets table was:
// one constant table per minor version, selected at runtime by the
// interpreter's reported version.
package pyoffsets

// Offsets is the layout of every CPython struct field the walker
// reads. Field names follow the CPython struct and member names,
// except String (see the String field doc) and PyRuntimeState.InterpMain
// (offsetof(_PyRuntimeState, interpreters.main)).
type Offsets struct {
	Version VersionTuple

	PyObject struct {
		ObType int64
	}
	// String holds the layout of the version's string representation.
	// Data is the offset to the first byte of character data; Size is
	// the offset to the 32-bit length-in-bytes field, or -1 if this
	// version's string layout doesn't expose a fixed offset (see
	// Offsets310 below).
	String struct {
		Data int64
		Size int64
	}
	PyTypeObject struct {
		TpName int64
	}
	PyThreadState struct {
		Next   int64
		Interp int64
		Frame  int64
		Thread int64 // named thread_id in some versions
	}
	PyInterpreterState struct {
		TstateHead int64
	}
	PyRuntimeState struct {
		InterpMain int64 // -1 when not applicable (Python < 3.7)
	}
	PyFrameObject struct {
		FBack       int64
		FCode       int64
		FLineno     int64
		FLocalsplus int64
	}
	PyCodeObject struct {
		CoFilename     int64
		CoName         int64
		CoVarnames     int64
		CoFirstlineno  int64
	}
	PyTupleObject struct {
		ObItem int64
	}

	// FirstArgNameEnabled reports whether the walker may additionally
	// resolve a function's first positional argument name (used to
	// distinguish bound methods from plain functions when symbolizing).
	// Disabled on versions whose String.Size this table cannot resolve.
	FirstArgNameEnabled bool
}

// VersionTuple identifies a CPython release by major.minor.
type VersionTuple struct {
	Major, Minor int
}

var py27 = Offsets{
	Version: VersionTuple{2, 7},
}

func init() {
	py27.PyObject.ObType = 8
	py27.String.Data = 36
	py27.String.Size = 16
	py27.PyTypeObject.TpName = 24
	py27.PyThreadState.Next = 0
	py27.PyThreadState.Interp = 8
	py27.PyThreadState.Frame = 16
	py27.PyThreadState.Thread = 144
	py27.PyInterpreterState.TstateHead = 8
	py27.PyRuntimeState.InterpMain = -1
	py27.PyFrameObject.FBack = 24
	py27.PyFrameObject.FCode = 32
	py27.PyFrameObject.FLineno = 124
	py27.PyFrameObject.FLocalsplus = 376
	py27.PyCodeObject.CoFilename = 80
	py27.PyCodeObject.CoName = 88
	py27.PyCodeObject.CoVarnames = 56
	py27.PyCodeObject.CoFirstlineno = 96
	py27.PyTupleObject.ObItem = 24
	py27.FirstArgNameEnabled = true
}

var py36 = Offsets{Version: VersionTuple{3, 6}}

func init() {
	py36.PyObject.ObType = 8
	py36.String.Data = 48
	py36.String.Size = 16
	py36.PyTypeObject.TpName = 24
	py36.PyThreadState.Next = 8
	py36.PyThreadState.Interp = 16
	py36.PyThreadState.Frame = 24
	py36.PyThreadState.Thread = 152
	py36.PyInterpreterState.TstateHead = 8
	py36.PyRuntimeState.InterpMain = -1
	py36.PyFrameObject.FBack = 24
	py36.PyFrameObject.FCode = 32
	py36.PyFrameObject.FLineno = 124
	py36.PyFrameObject.FLocalsplus = 376
	py36.PyCodeObject.CoFilename = 96
	py36.PyCodeObject.CoName = 104
	py36.PyCodeObject.CoVarnames = 64
	py36.PyCodeObject.CoFirstlineno = 36
	py36.PyTupleObject.ObItem = 24
	py36.FirstArgNameEnabled = true
}

var py37 = Offsets{Version: VersionTuple{3, 7}}

func init() {
	py37.PyObject.ObType = 8
	py37.String.Data = 48
	py37.String.Size = 16
	py37.PyTypeObject.TpName = 24
	py37.PyThreadState.Next = 8
	py37.PyThreadState.Interp = 16
	py37.PyThreadState.Frame = 24
	py37.PyThreadState.Thread = 176
	py37.PyInterpreterState.TstateHead = 8
	py37.PyRuntimeState.InterpMain = 32
	py37.PyFrameObject.FBack = 24
	py37.PyFrameObject.FCode = 32
	py37.PyFrameObject.FLineno = 108
	py37.PyFrameObject.FLocalsplus = 360
	py37.PyCodeObject.CoFilename = 96
	py37.PyCodeObject.CoName = 104
	py37.PyCodeObject.CoVarnames = 64
	py37.PyCodeObject.CoFirstlineno = 36
	py37.PyTupleObject.ObItem = 24
	py37.FirstArgNameEnabled = true
}

var py38 = Offsets{Version: VersionTuple{3, 8}}

func init() {
	py38.PyObject.ObType = 8
	py38.String.Data = 48
	py38.String.Size = 16
	py38.PyTypeObject.TpName = 24
	py38.PyThreadState.Next = 8
	py38.PyThreadState.Interp = 16
	py38.PyThreadState.Frame = 24
	py38.PyThreadState.Thread = 176
	py38.PyInterpreterState.TstateHead = 8
	py38.PyRuntimeState.InterpMain = 40
	py38.PyFrameObject.FBack = 24
	py38.PyFrameObject.FCode = 32
	py38.PyFrameObject.FLineno = 108
	py38.PyFrameObject.FLocalsplus = 360
	py38.PyCodeObject.CoFilename = 104
	py38.PyCodeObject.CoName = 112
	py38.PyCodeObject.CoVarnames = 72
	py38.PyCodeObject.CoFirstlineno = 40
	py38.PyTupleObject.ObItem = 24
	py38.FirstArgNameEnabled = true
}

// py39 has an identical layout to py38.
var py39 Offsets

func init() {
	py39 = py38
	py39.Version = VersionTuple{3, 9}
}

// py310: the 3.10 string representation's length field has no single
// fixed offset across the encodings CPython 3.10 uses internally
// (ASCII vs compact unicode vs legacy), so String.Size is left
// unresolved (-1) and first-argument-name resolution, which depends
// on walking tuple/string layouts the same ambiguous way, is disabled.
// Callers fall back to classifying frames by code object name alone.
var py310 = Offsets{Version: VersionTuple{3, 10}}

func init() {
	py310.PyObject.ObType = 8
	py310.String.Data = 48
	py310.String.Size = -1
	py310.PyTypeObject.TpName = 24
	py310.PyThreadState.Next = 8
	py310.PyThreadState.Interp = 16
	py310.PyThreadState.Frame = 24
	py310.PyThreadState.Thread = 176
	py310.PyInterpreterState.TstateHead = 8
	py310.PyRuntimeState.InterpMain = 40
	py310.PyFrameObject.FBack = 24
	py310.PyFrameObject.FCode = 32
	py310.PyFrameObject.FLineno = 100
	py310.PyFrameObject.FLocalsplus = 352
	py310.PyCodeObject.CoFilename = 104
	py310.PyCodeObject.CoName = 112
	py310.PyCodeObject.CoVarnames = 72
	py310.PyCodeObject.CoFirstlineno = 40
	py310.PyTupleObject.ObItem = 24
	py310.FirstArgNameEnabled = false
}

// python3Table must stay sorted ascending by Minor; Lookup depends on
// it to find the newest version not exceeding the target.
var python3Table []Offsets

func init() {
	python3Table = []Offsets{py36, py37, py38, py39, py310}
}

// Lookup returns the offsets for the given interpreter version. Major
// version 2 always resolves to the Python 2.7 layout (the only 2.x
// layout this table carries); major version 3 is resolved against
// python3Table by picking the newest entry whose minor version does
// not exceed the target, matching tail2's own "nearest preceding
// version" resolution. It reports false if no entry applies (any
// major other than 2 or 3, or a 3.x minor older than 3.6).
func Lookup(major, minor int) (Offsets, bool) {
	if major == 2 {
		return py27, true
	}
	if major != 3 {
		return Offsets{}, false
	}
	var best *Offsets
	for i := range python3Table {
		if python3Table[i].Version.Minor > minor {
			continue
		}
		if best == nil || python3Table[i].Version.Minor > best.Version.Minor {
			best = &python3Table[i]
		}
	}
	if best == nil {
		return Offsets{}, false
	}
	return *best, true
}

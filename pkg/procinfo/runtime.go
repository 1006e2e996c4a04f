package procinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RuntimeKind distinguishes the managed runtimes the profiler treats
// specially from everything else, which is walked as plain native
// code.
type RuntimeKind uint8

const (
	RuntimeUnknown RuntimeKind = iota
	RuntimePython
)

// RuntimeType identifies the language runtime backing one mapped
// module, resolved the same way tail2's own detect_runtime_type does:
// by filename convention, then by scanning the file for a version
// string following the runtime's name.
type RuntimeType struct {
	Kind    RuntimeKind
	IsLib   bool
	Version PythonVersion
}

// PythonVersion is a parsed interpreter release.
type PythonVersion struct {
	Major, Minor, Patch int
}

func (v PythonVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsUnknown reports whether no managed runtime was detected.
func (rt RuntimeType) IsUnknown() bool { return rt.Kind == RuntimeUnknown }

// DetectRuntimeType classifies a mapped file by name and, for Python,
// by scanning its contents for a version string immediately following
// the interpreter's own name (e.g. the "3.10.4" release string
// embedded near "python3.10" in both the python3.10 executable and
// libpython3.10.so.1.0).
func DetectRuntimeType(path string) (RuntimeType, error) {
	base := filepath.Base(path)
	isLib := strings.HasPrefix(base, "libpython")
	if !isLib && !strings.HasPrefix(base, "python") {
		return RuntimeType{Kind: RuntimeUnknown}, nil
	}

	suffix := strings.TrimPrefix(base, "libpython")
	if !isLib {
		suffix = strings.TrimPrefix(base, "python")
	}

	f, err := os.Open(path)
	if err != nil {
		return RuntimeType{}, err
	}
	defer f.Close()

	version, ok, err := scanPythonVersion(f, "python"+suffix)
	if err != nil {
		return RuntimeType{}, err
	}
	if !ok {
		return RuntimeType{Kind: RuntimeUnknown}, nil
	}
	return RuntimeType{Kind: RuntimePython, IsLib: isLib, Version: version}, nil
}

const scanWindow = 4096

// scanPythonVersion slides a fixed-size window over the first
// 2*scanWindow bytes (8 KiB) of r looking for marker immediately
// followed by a NUL-terminated "major.minor.patch" string, matching
// the in-binary layout CPython embeds next to its own build
// identifier. Bytes past that prefix are not searched.
func scanPythonVersion(r *os.File, marker string) (PythonVersion, bool, error) {
	br := bufio.NewReaderSize(r, scanWindow*2)
	buf := make([]byte, 0, scanWindow*2)
	chunk := make([]byte, scanWindow)

	total := 0
	for total < scanWindow*2 {
		n, err := br.Read(chunk)
		if n > 0 {
			total += n
			buf = append(buf, chunk[:n]...)
			if v, ok := findVersionAfterMarker(buf, marker); ok {
				return v, true, nil
			}
			// Keep enough of the tail to catch a marker that straddles
			// the chunk boundary, matching the original's sliding window.
			if len(buf) > scanWindow {
				buf = buf[len(buf)-scanWindow:]
			}
		}
		if err != nil {
			break
		}
	}
	return PythonVersion{}, false, nil
}

func findVersionAfterMarker(buf []byte, marker string) (PythonVersion, bool) {
	m := []byte(marker)
	for start := 0; start+len(m) <= len(buf); start++ {
		if string(buf[start:start+len(m)]) != string(m) {
			continue
		}
		rest := buf[start+len(m):]
		end := -1
		for i, b := range rest {
			if b == 0 {
				end = i
				break
			}
			if i > 32 {
				break
			}
		}
		if end <= 0 {
			continue
		}
		if v, ok := parseVersionTriple(string(rest[:end])); ok {
			return v, true
		}
	}
	return PythonVersion{}, false
}

func parseVersionTriple(s string) (PythonVersion, bool) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 2 {
		return PythonVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return PythonVersion{}, false
	}
	minor, err := strconv.Atoi(strings.TrimRight(parts[1], "+"))
	if err != nil {
		return PythonVersion{}, false
	}
	patch := 0
	if len(parts) == 3 {
		p := parts[2]
		for i, c := range p {
			if c < '0' || c > '9' {
				p = p[:i]
				break
			}
		}
		patch, _ = strconv.Atoi(p)
	}
	return PythonVersion{Major: major, Minor: minor, Patch: patch}, true
}

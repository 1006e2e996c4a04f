package symbol

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/0b01/tail2-go/pkg/procinfo"
	"github.com/0b01/tail2-go/pkg/sample"
	"github.com/0b01/tail2-go/pkg/unwind"
)

// Symbolizer resolves a native stack's raw addresses (runtime/AVMA
// addresses observed in one process's address space) into Frames,
// loading and caching one Module per executable file on first use.
type Symbolizer struct {
	arch unwind.Arch

	mu      sync.Mutex
	modules *lru.Cache // path -> *Module
}

// NewSymbolizer creates a Symbolizer that keeps at most cacheSize
// parsed Modules resident, evicting the least recently used.
func NewSymbolizer(arch unwind.Arch, cacheSize int) (*Symbolizer, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Symbolizer{arch: arch, modules: c}, nil
}

func (s *Symbolizer) moduleFor(path string) (*Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.modules.Get(path); ok {
		return v.(*Module), nil
	}
	m, err := LoadModule(path, s.arch)
	if err != nil {
		return nil, err
	}
	s.modules.Add(path, m)
	return m, nil
}

// ResolveNative translates one process's native stack (runtime
// addresses) into symbol Frames, using mappings to find which module
// each address falls in and what its file-relative offset is.
// Addresses that can't be mapped to any executable mapping are
// skipped. An address whose module can't be loaded, or that has no
// covering symbol, becomes a "path+offset" frame instead.
func (s *Symbolizer) ResolveNative(addrs []uint64, mappings []procinfo.Mapping) []Frame {
	frames := make([]Frame, 0, len(addrs))
	for _, addr := range addrs {
		mapping, ok := findMapping(mappings, addr)
		if !ok {
			continue
		}
		offset := addr - mapping.Start + mapping.Offset
		m, err := s.moduleFor(mapping.Path)
		if err != nil {
			frames = append(frames, Frame{Function: fmt.Sprintf("%s+%#x", mapping.Path, offset), Address: addr})
			continue
		}
		sym, ok := m.Symbols().Lookup(offset)
		if !ok {
			frames = append(frames, Frame{Function: fmt.Sprintf("%s+%#x", mapping.Path, offset), Address: addr})
			continue
		}
		frames = append(frames, Frame{Function: sym.Name, File: mapping.Path, Address: addr})
	}
	return frames
}

func findMapping(mappings []procinfo.Mapping, addr uint64) (procinfo.Mapping, bool) {
	for _, m := range mappings {
		if m.Executable() && addr >= m.Start && addr < m.End {
			return m, true
		}
	}
	return procinfo.Mapping{}, false
}

// ResolvePython converts a decoded PythonStack's raw frame symbols
// into generic Frames, innermost frame first, qualifying each
// function name with its class when one was recorded.
func ResolvePython(stack *sample.PythonStack) []Frame {
	if stack == nil {
		return nil
	}
	frames := stack.Frames[:stack.Len]
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		name := f.NameString()
		if cls := f.ClassNameString(); cls != "" {
			name = cls + "." + name
		}
		out = append(out, Frame{Function: name, File: f.FileString(), Line: int64(f.Lineno)})
	}
	return out
}

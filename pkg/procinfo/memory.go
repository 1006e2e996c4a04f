package procinfo

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ProcessMemory reads a live process's address space through
// /proc/<pid>/mem, the same access path delve's native backend uses
// for its MemoryReadWriter. Reads that fall on an unmapped page
// return ok=false rather than an error, since a probe racing against
// the target process unmapping memory is an expected, frequent event
// rather than a program bug.
type ProcessMemory struct {
	f *os.File
}

// OpenProcessMemory opens /proc/<pid>/mem for reading.
func OpenProcessMemory(pid int) (*ProcessMemory, error) {
	f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &ProcessMemory{f: f}, nil
}

// Close releases the underlying file descriptor.
func (p *ProcessMemory) Close() error { return p.f.Close() }

// ReadMemory fills buf from addr, returning the number of bytes read.
// Mirrors the (buf []byte, addr uint64) (int, error) shape used
// throughout delve's memory reading code.
func (p *ProcessMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	return p.f.ReadAt(buf, int64(addr))
}

// ReadUint64 satisfies the bounded Memory contract pkg/unwind and
// pkg/pywalk's walkers depend on.
func (p *ProcessMemory) ReadUint64(addr uint64) (uint64, bool) {
	var buf [8]byte
	n, err := p.ReadMemory(buf[:], addr)
	if err != nil || n != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(buf[:]), true
}

// ReadBytes reads n raw bytes starting at addr.
func (p *ProcessMemory) ReadBytes(addr uint64, n int) ([]byte, bool) {
	buf := make([]byte, n)
	read, err := p.ReadMemory(buf, addr)
	if err != nil || read != n {
		return nil, false
	}
	return buf, true
}

// Package sample defines the wire-level stack sample exchanged between
// the eBPF side and the user-space agent: one PID/TID-tagged snapshot
// of a native call stack plus, when the sampled thread is a Python
// interpreter thread, the Python call stack observed alongside it.
package sample

import "fmt"

// PidTgid packs a thread id and its thread-group (process) id into a
// single 64-bit value the way the kernel's bpf_get_current_pid_tgid
// does: pid in the high 32 bits, tgid in the low 32 bits. Two
// PidTgid values compare and hash equal whenever their tgid matches,
// even if their pid differs — samples are grouped per process, and
// the originating thread id is metadata, not identity.
type PidTgid uint64

// NewPidTgid packs a thread id and thread-group id into a PidTgid.
func NewPidTgid(pid, tgid uint32) PidTgid {
	return PidTgid(uint64(pid)<<32 | uint64(tgid))
}

// Pid returns the thread id (high 32 bits).
func (p PidTgid) Pid() uint32 {
	return uint32(p >> 32)
}

// Tgid returns the thread-group id, i.e. the process id (low 32 bits).
func (p PidTgid) Tgid() uint32 {
	return uint32(p & 0xffffffff)
}

// Equal reports whether p and other belong to the same process,
// ignoring which thread produced each value.
func (p PidTgid) Equal(other PidTgid) bool {
	return p.Tgid() == other.Tgid()
}

// GroupKey returns the value other PidTgids must share to be Equal to
// p, suitable as a map key when grouping samples by process.
func (p PidTgid) GroupKey() uint32 {
	return p.Tgid()
}

func (p PidTgid) String() string {
	return fmt.Sprintf("%d:%d", p.Pid(), p.Tgid())
}

// Package probe describes what the profiler should sample: either a
// periodic timer (perf) firing on some scope of CPUs/processes, or a
// uprobe on a named symbol in a given binary.
package probe

import "fmt"

// ScopeKind distinguishes a single-process scope from a system-wide one.
type ScopeKind uint8

const (
	ScopeSystemWide ScopeKind = iota
	ScopePid
)

// Scope selects which threads a probe applies to.
type Scope struct {
	Kind ScopeKind
	Pid  int
}

// SystemWide is the scope matching every process on the host.
func SystemWide() Scope {
	return Scope{Kind: ScopeSystemWide}
}

// OfPid scopes a probe to a single process.
func OfPid(pid int) Scope {
	return Scope{Kind: ScopePid, Pid: pid}
}

func (s Scope) String() string {
	if s.Kind == ScopePid {
		return fmt.Sprintf("pid:%d", s.Pid)
	}
	return "system-wide"
}

// Kind distinguishes the two probe variants.
type Kind uint8

const (
	KindPerf Kind = iota
	KindUprobe
)

// Probe is a tagged union of the two ways this profiler attaches to a
// target: a periodic perf-event sampling timer, or a uprobe fired on
// entry to a named function in a specific binary.
type Probe struct {
	Kind Kind

	// Scope is used by both kinds; PeriodNs only by perf probes.
	Scope    Scope
	PeriodNs uint64

	// Uprobe fields.
	BinaryPath string
	Symbol     string
}

// NewPerfProbe creates a periodic sampling probe firing every
// periodNs nanoseconds of CPU time, over scope.
func NewPerfProbe(scope Scope, periodNs uint64) Probe {
	return Probe{Kind: KindPerf, Scope: scope, PeriodNs: periodNs}
}

// NewUprobe creates a probe that fires on entry to symbol in
// binaryPath, scoped the same way a perf probe is.
func NewUprobe(scope Scope, binaryPath, symbol string) Probe {
	return Probe{Kind: KindUprobe, Scope: scope, BinaryPath: binaryPath, Symbol: symbol}
}

func (p Probe) String() string {
	switch p.Kind {
	case KindPerf:
		return fmt.Sprintf("perf(%s, every %dns)", p.Scope, p.PeriodNs)
	case KindUprobe:
		return fmt.Sprintf("uprobe(%s, %s:%s)", p.Scope, p.BinaryPath, p.Symbol)
	default:
		return "invalid probe"
	}
}

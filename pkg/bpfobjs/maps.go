// Package bpfobjs describes the eBPF object this profiler loads: the
// map layout bpf/tail2.bpf.c was built against, expressed the way
// bpf2go-generated bindings express it (a CollectionSpec built from
// literal MapSpecs) so the Go side can load and pin the real object
// without depending on a generated file that isn't checked in.
package bpfobjs

import "github.com/cilium/ebpf"

// Map names, matching the in-kernel program's map section names
// exactly: loader.go looks these up by name after loading the
// collection.
const (
	MapStacks       = "STACKS"
	MapPidEvent     = "PID_EVENT"
	MapStackBuf     = "STACK_BUF"
	MapConfig       = "CONFIG"
	MapKernelStacks = "KERNEL_STACKS"
	MapPids         = "PIDS"
	MapPidReports   = "PID_REPORTS"
	MapMetrics      = "METRICS"
)

// Map entry-count limits, matching bpf/tail2.bpf.c's map definitions.
const (
	maxConfigEntries     = 10
	maxKernelStackDepth  = 10
	maxPidEntries        = 512
	maxPidReportEntries  = 512
	stackBufEntries      = 1
	metricsMaxEntries    = 64 // upper bound on pkg/metrics.ID values
)

// MapSpecs returns the map layout of the compiled BPF object, one
// entry per map defined in bpf/tail2.bpf.c. ValueSize for the
// per-sample maps matches sample.WireSize, the fixed encoded size of
// a BpfSample record.
func MapSpecs(bpfSampleSize, procInfoSize, pidEventSize uint32) map[string]*ebpf.MapSpec {
	return map[string]*ebpf.MapSpec{
		MapStacks: {
			Name:       MapStacks,
			Type:       ebpf.PerfEventArray,
			KeySize:    4,
			ValueSize:  4,
			MaxEntries: 0, // sized to the number of online CPUs at load time
		},
		MapPidEvent: {
			Name:       MapPidEvent,
			Type:       ebpf.PerfEventArray,
			KeySize:    4,
			ValueSize:  4,
			MaxEntries: 0,
		},
		MapStackBuf: {
			Name:       MapStackBuf,
			Type:       ebpf.PerCPUArray,
			KeySize:    4,
			ValueSize:  bpfSampleSize,
			MaxEntries: stackBufEntries,
		},
		MapConfig: {
			Name:       MapConfig,
			Type:       ebpf.Hash,
			KeySize:    4,
			ValueSize:  8,
			MaxEntries: maxConfigEntries,
		},
		MapKernelStacks: {
			Name:       MapKernelStacks,
			Type:       ebpf.StackTrace,
			KeySize:    4,
			ValueSize:  8 * maxKernelStackDepth,
			MaxEntries: maxKernelStackDepth,
		},
		MapPids: {
			Name:       MapPids,
			Type:       ebpf.Hash,
			KeySize:    4,
			ValueSize:  procInfoSize,
			MaxEntries: maxPidEntries,
		},
		MapPidReports: {
			Name:       MapPidReports,
			Type:       ebpf.Hash,
			KeySize:    4,
			ValueSize:  8,
			MaxEntries: maxPidReportEntries,
		},
		MapMetrics: {
			Name:       MapMetrics,
			Type:       ebpf.Hash,
			KeySize:    4,
			ValueSize:  8,
			MaxEntries: metricsMaxEntries,
		},
	}
}

// ConfigKey indexes the CONFIG map, mirroring tail2-common's
// ConfigKey enum.
type ConfigKey uint32

const (
	ConfigKeyDev ConfigKey = iota
	ConfigKeyIno
)

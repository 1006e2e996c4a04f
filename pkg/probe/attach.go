package probe

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"golang.org/x/sys/unix"
)

// Attachment is a live kernel attachment produced by Attach: closing
// it detaches the probe and releases its file descriptors.
type Attachment struct {
	closers []func() error
}

// Close detaches every link this attachment opened, returning the
// first error encountered while still attempting to close the rest.
func (a *Attachment) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Attach wires p to prog: for a perf probe, one perf_event_open per
// online CPU (or, for a pid-scoped probe, one fd for that process
// across all CPUs); for a uprobe, a single inode-based uprobe
// attachment via cilium/ebpf/link.
func Attach(p Probe, prog *ebpf.Program) (*Attachment, error) {
	switch p.Kind {
	case KindPerf:
		return attachPerf(p, prog)
	case KindUprobe:
		return attachUprobe(p, prog)
	default:
		return nil, fmt.Errorf("probe: invalid kind %d", p.Kind)
	}
}

func attachPerf(p Probe, prog *ebpf.Program) (*Attachment, error) {
	pid := -1
	cpus := []int{-1}
	if p.Scope.Kind == ScopePid {
		pid = p.Scope.Pid
	} else {
		n := runtime.NumCPU()
		cpus = make([]int, n)
		for i := range cpus {
			cpus[i] = i
		}
	}

	att := &Attachment{}
	for _, cpu := range cpus {
		fd, err := unix.PerfEventOpen(&unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_SOFTWARE,
			Config: unix.PERF_COUNT_SW_CPU_CLOCK,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Sample: p.PeriodNs,
			Bits:   unix.PerfBitDisabled,
		}, pid, cpu, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			att.Close()
			return nil, fmt.Errorf("probe: perf_event_open pid=%d cpu=%d: %w", pid, cpu, err)
		}

		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_SET_BPF, prog.FD()); err != nil {
			unix.Close(fd)
			att.Close()
			return nil, fmt.Errorf("probe: PERF_EVENT_IOC_SET_BPF pid=%d cpu=%d: %w", pid, cpu, err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			unix.Close(fd)
			att.Close()
			return nil, fmt.Errorf("probe: PERF_EVENT_IOC_ENABLE pid=%d cpu=%d: %w", pid, cpu, err)
		}
		closeFd := fd
		att.closers = append(att.closers, func() error {
			unix.IoctlSetInt(closeFd, unix.PERF_EVENT_IOC_DISABLE, 0)
			return unix.Close(closeFd)
		})
	}
	return att, nil
}

func attachUprobe(p Probe, prog *ebpf.Program) (*Attachment, error) {
	ex, err := link.OpenExecutable(p.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("probe: opening %s: %w", p.BinaryPath, err)
	}

	var opts *link.UprobeOptions
	if p.Scope.Kind == ScopePid {
		opts = &link.UprobeOptions{PID: p.Scope.Pid}
	}

	l, err := ex.Uprobe(p.Symbol, prog, opts)
	if err != nil {
		return nil, fmt.Errorf("probe: attaching uprobe %s:%s: %w", p.BinaryPath, p.Symbol, err)
	}
	return &Attachment{closers: []func() error{l.Close}}, nil
}

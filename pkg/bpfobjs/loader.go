package bpfobjs

import (
	"fmt"

	"github.com/cilium/ebpf"
)

// Objects holds the loaded maps and programs of bpf/tail2.bpf.c,
// mirroring the shape a bpf2go-generated `tail2Objects` struct would
// have: one field per map/program, plus a Close that releases all of
// them together.
type Objects struct {
	Stacks       *ebpf.Map
	PidEvent     *ebpf.Map
	StackBuf     *ebpf.Map
	Config       *ebpf.Map
	KernelStacks *ebpf.Map
	Pids         *ebpf.Map
	PidReports   *ebpf.Map
	Metrics      *ebpf.Map

	Programs map[string]*ebpf.Program

	coll *ebpf.Collection
}

// LoadObjects loads the compiled BPF object at objPath (produced by a
// clang build of bpf/tail2.bpf.c, out of scope for this repository)
// and resolves its maps into the typed Objects struct.
func LoadObjects(objPath string) (*Objects, error) {
	spec, err := ebpf.LoadCollectionSpec(objPath)
	if err != nil {
		return nil, fmt.Errorf("bpfobjs: loading spec from %s: %w", objPath, err)
	}
	return loadFromSpec(spec)
}

func loadFromSpec(spec *ebpf.CollectionSpec) (*Objects, error) {
	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("bpfobjs: instantiating collection: %w", err)
	}

	get := func(name string) (*ebpf.Map, error) {
		m, ok := coll.Maps[name]
		if !ok {
			coll.Close()
			return nil, fmt.Errorf("bpfobjs: collection has no map named %s", name)
		}
		return m, nil
	}

	objs := &Objects{coll: coll, Programs: coll.Programs}
	var err2 error
	fields := []struct {
		name string
		dst  **ebpf.Map
	}{
		{MapStacks, &objs.Stacks},
		{MapPidEvent, &objs.PidEvent},
		{MapStackBuf, &objs.StackBuf},
		{MapConfig, &objs.Config},
		{MapKernelStacks, &objs.KernelStacks},
		{MapPids, &objs.Pids},
		{MapPidReports, &objs.PidReports},
		{MapMetrics, &objs.Metrics},
	}
	for _, f := range fields {
		m, err := get(f.name)
		if err != nil {
			err2 = err
			break
		}
		*f.dst = m
	}
	if err2 != nil {
		return nil, err2
	}
	return objs, nil
}

// Close releases every map and program in the collection.
func (o *Objects) Close() error {
	o.coll.Close()
	return nil
}

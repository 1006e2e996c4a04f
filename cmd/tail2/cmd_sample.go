package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/internal/logflags"
	"github.com/0b01/tail2-go/pkg/bpfobjs"
	"github.com/0b01/tail2-go/pkg/metrics"
	"github.com/0b01/tail2-go/pkg/probe"
	"github.com/0b01/tail2-go/pkg/sample"
)

func newSampleCmd() *cobra.Command {
	var (
		pid      int
		command  string
		periodNs uint64
		objPath  string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "periodically sample native+Python call stacks for a pid or a spawned command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (pid == 0) == (command == "") {
				return fmt.Errorf("exactly one of --pid or --command must be given")
			}

			scope := probe.SystemWide()
			if command != "" {
				spawnedPid, cleanup, err := spawnUnderPty(command)
				if err != nil {
					return err
				}
				defer cleanup()
				scope = probe.OfPid(spawnedPid)
			} else if pid != 0 {
				scope = probe.OfPid(pid)
			}

			objs, err := bpfobjs.LoadObjects(objPath)
			if err != nil {
				return fmt.Errorf("loading BPF object: %w", err)
			}
			defer objs.Close()

			prog, ok := objs.Programs["tail2_on_sample"]
			if !ok {
				return fmt.Errorf("BPF object at %s has no tail2_on_sample program", objPath)
			}

			p := probe.NewPerfProbe(scope, periodNs)
			att, err := probe.Attach(p, prog)
			if err != nil {
				return fmt.Errorf("attaching %s: %w", p, err)
			}
			defer att.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			counts := metrics.New()
			consumer, err := sample.NewRingConsumer(objs.Stacks, counts, logflags.TransportLogger())
			if err != nil {
				return err
			}
			defer consumer.Close()

			client := sample.NewClient(cfg.ServerEndpoint, cfg.MaxBatchSize,
				time.Duration(cfg.FlushIntervalMs)*time.Millisecond, logflags.TransportLogger())
			go client.Run(ctx)

			return consumer.Run(ctx, func(s sample.BpfSample) {
				client.Enqueue(s)
			})
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "sample an existing process")
	cmd.Flags().StringVar(&command, "command", "", "spawn and sample this command instead")
	cmd.Flags().Uint64Var(&periodNs, "period", 10_000_000, "sampling period in nanoseconds")
	cmd.Flags().StringVar(&objPath, "bpf-object", "tail2.bpf.o", "path to the compiled BPF object")
	return cmd
}

// spawnUnderPty starts command attached to a new pty, the same way
// tail2 gives a profiled child process a controlling terminal instead
// of inheriting the caller's, so interactive programs behave normally
// while still being sampled.
func spawnUnderPty(command string) (pid int, cleanup func(), err error) {
	cmd := shellCommand(command)
	f, err := pty.Start(cmd)
	if err != nil {
		return 0, nil, fmt.Errorf("spawning %q under a pty: %w", command, err)
	}
	return cmd.Process.Pid, func() {
		f.Close()
		_ = cmd.Process.Kill()
	}, nil
}

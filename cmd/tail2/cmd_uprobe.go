package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/pkg/bpfobjs"
	"github.com/0b01/tail2-go/pkg/probe"
)

func newUprobeCmd() *cobra.Command {
	var (
		pid        int
		command    string
		uprobeSpec string
		objPath    string
	)

	cmd := &cobra.Command{
		Use:   "uprobe",
		Short: "fire on entry to a symbol in a running process or spawned command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (pid == 0) == (command == "") {
				return fmt.Errorf("exactly one of --pid or --command must be given")
			}
			binaryPath, symbol, err := parseUprobeSpec(uprobeSpec)
			if err != nil {
				return err
			}

			scope := probe.SystemWide()
			if command != "" {
				spawnedPid, cleanup, err := spawnUnderPty(command)
				if err != nil {
					return err
				}
				defer cleanup()
				scope = probe.OfPid(spawnedPid)
			} else {
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

			p := probe.NewUprobe(scope, binaryPath, symbol)
			att, err := probe.Attach(p, prog)
			if err != nil {
				return fmt.Errorf("attaching %s: %w", p, err)
			}
			defer att.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "attach to an existing process")
	cmd.Flags().StringVar(&command, "command", "", "spawn and attach to this command instead")
	cmd.Flags().StringVar(&uprobeSpec, "uprobe", "", "mod:sym, e.g. /usr/bin/python3.10:_PyEval_EvalFrameDefault")
	cmd.Flags().StringVar(&objPath, "bpf-object", "tail2.bpf.o", "path to the compiled BPF object")
	cmd.MarkFlagRequired("uprobe")
	return cmd
}

func parseUprobeSpec(spec string) (binaryPath, symbol string, err error) {
	for i := len(spec) - 1; i >= 0; i-- {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("uprobe spec %q must be of the form mod:sym", spec)
}

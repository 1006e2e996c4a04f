package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/pkg/procinfo"
)

func newProcessesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processes",
		Short: "list running processes and their detected runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir("/proc")
			if err != nil {
				return fmt.Errorf("reading /proc: %w", err)
			}

			var pids []int
			for _, e := range entries {
				if pid, err := strconv.Atoi(e.Name()); err == nil {
					pids = append(pids, pid)
				}
			}
			sort.Ints(pids)

			w := stdoutWriter()
			for _, pid := range pids {
				exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
				if err != nil {
					continue
				}
				rt, err := procinfo.DetectRuntimeType(exe)
				if err != nil {
					rt = procinfo.RuntimeType{Kind: procinfo.RuntimeUnknown}
				}
				fmt.Fprintf(w, "%8d  %-12s  %s\n", pid, runtimeLabel(rt), exe)
			}
			return nil
		},
	}
	return cmd
}

func runtimeLabel(rt procinfo.RuntimeType) string {
	if rt.IsUnknown() {
		return "native"
	}
	return fmt.Sprintf("python%s", rt.Version)
}

package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/pkg/procinfo"
	"github.com/0b01/tail2-go/pkg/symbol"
	"github.com/0b01/tail2-go/pkg/unwind"
)

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table <pid>",
		Short: "print the concatenated unwind table built for a running process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid %q: %w", args[0], err)
			}

			arch, err := hostArch()
			if err != nil {
				return err
			}

			mappings, err := procinfo.ReadMaps(pid)
			if err != nil {
				return fmt.Errorf("reading maps for pid %d: %w", pid, err)
			}
			loadBias := procinfo.ModuleMappings(mappings)

			var rows []unwind.Row
			for path, bias := range loadBias {
				mod, err := symbol.LoadModule(path, arch)
				if err != nil {
					logflagsProbeWarn(path, err)
					continue
				}
				for _, row := range mod.Table().Rows {
					rows = append(rows, unwind.Row{Addr: row.Addr + bias, Rule: row.Rule})
				}
			}

			sort.Slice(rows, func(i, j int) bool { return rows[i].Addr < rows[j].Addr })
			if len(rows) > unwind.MaxRows {
				rows = rows[:unwind.MaxRows]
			}

			w := stdoutWriter()
			for _, row := range rows {
				fmt.Fprintf(w, "%#016x  %s %+v\n", row.Addr, row.Rule.Kind, row.Rule)
			}
			fmt.Fprintf(w, "# %d rows across %d modules\n", len(rows), len(loadBias))
			return nil
		},
	}
	return cmd
}

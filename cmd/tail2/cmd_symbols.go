package main

import (
	"fmt"

	"github.com/derekparker/trie"
	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/pkg/symbol"
)

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols <binary> [prefix]",
		Short: "list function symbols in a binary, optionally filtered by prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := hostArch()
			if err != nil {
				return err
			}
			mod, err := symbol.LoadModule(args[0], arch)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}

			index := trie.New()
			for _, sym := range mod.Symbols() {
				index.Add(sym.Name, sym)
			}

			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}

			w := stdoutWriter()
			for _, name := range index.PrefixSearch(prefix) {
				node, ok := index.Find(name)
				if !ok {
					continue
				}
				sym := node.Meta().(symbol.Symbol)
				fmt.Fprintf(w, "%#016x %8d %s\n", sym.Value, sym.Size, sym.Name)
			}
			return nil
		},
	}
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/0b01/tail2-go/internal/logflags"
	"github.com/0b01/tail2-go/pkg/config"
	"github.com/0b01/tail2-go/pkg/unwind"
)

var (
	cfgPath   string
	logFields string
	verbose   bool
	cfg       config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tail2",
		Short: "whole-system native+Python sampling profiler",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logflags.Setup(verbose, logFields); err != nil {
				return err
			}
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			} else {
				cfg = config.Default()
			}
			if err := logflags.Setup(cfg.Verbose, cfg.LogFields); err != nil {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a tail2 YAML config file")
	root.PersistentFlags().StringVar(&logFields, "log-fields", "", "comma-separated debug subsystems (stack,python,probe,transport,debugger)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(newTableCmd())
	root.AddCommand(newSymbolsCmd())
	root.AddCommand(newProcessesCmd())
	root.AddCommand(newSampleCmd())
	root.AddCommand(newUprobeCmd())
	return root
}

// hostArch returns the unwind.Arch matching the running kernel's
// native architecture; tail2 only samples processes running under the
// same architecture it's attached from.
func hostArch() (unwind.Arch, error) {
	switch runtime.GOARCH {
	case "amd64":
		return unwind.AMD64, nil
	case "arm64":
		return unwind.ARM64, nil
	default:
		return nil, fmt.Errorf("unsupported architecture %s", runtime.GOARCH)
	}
}

// stdoutWriter returns a color-capable writer when stdout is a
// terminal, matching delve's own terminal output style.
func stdoutWriter() io.Writer {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return colorable.NewColorableStdout()
	}
	return os.Stdout
}

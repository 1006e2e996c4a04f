package main

import "github.com/0b01/tail2-go/internal/logflags"

// logflagsProbeWarn reports a per-module failure (an unreadable or
// unparsable mapping) without aborting the whole table/sample
// operation: one bad shared library shouldn't hide the rest.
func logflagsProbeWarn(path string, err error) {
	logflags.DebuggerLogger().Errorf("skipping %s: %v", path, err)
}

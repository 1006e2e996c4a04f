// Package logflags controls which subsystems emit debug logging and
// hands back a *logrus.Entry scoped to that subsystem, the same
// contract delve's own pkg/logflags exposes to pkg/proc/stack.go.
package logflags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	stackFlag     = "stack"
	pythonFlag    = "python"
	probeFlag     = "probe"
	transportFlag = "transport"
	debuggerFlag  = "debugger"
)

var (
	mu      sync.Mutex
	enabled = map[string]bool{}
	logger  = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return l
}

// Setup parses a comma-separated list of subsystem names (as accepted
// by a --log-fields flag) and enables logging for each, returning an
// error naming any flag it doesn't recognize.
func Setup(verbose bool, fields string) error {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if fields == "" {
		return nil
	}
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimSpace(f)
		switch f {
		case stackFlag, pythonFlag, probeFlag, transportFlag, debuggerFlag:
			enabled[f] = true
		default:
			return fmt.Errorf("logflags: unknown subsystem %q", f)
		}
	}
	return nil
}

func isEnabled(flag string) bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled[flag]
}

func entry(flag string) *logrus.Entry {
	return logger.WithField("layer", flag)
}

// Stack reports whether native-unwind debug logging is enabled.
func Stack() bool { return isEnabled(stackFlag) }

// StackLogger returns the logger native unwinding writes debug output to.
func StackLogger() *logrus.Entry { return entry(stackFlag) }

// Python reports whether Python-frame-walking debug logging is enabled.
func Python() bool { return isEnabled(pythonFlag) }

// PythonLogger returns the logger Python frame walking writes debug output to.
func PythonLogger() *logrus.Entry { return entry(pythonFlag) }

// Probe reports whether probe attach/detach debug logging is enabled.
func Probe() bool { return isEnabled(probeFlag) }

// ProbeLogger returns the logger probe attachment writes debug output to.
func ProbeLogger() *logrus.Entry { return entry(probeFlag) }

// Transport reports whether sample-transport debug logging is enabled.
func Transport() bool { return isEnabled(transportFlag) }

// TransportLogger returns the logger the batching sample client writes debug output to.
func TransportLogger() *logrus.Entry { return entry(transportFlag) }

// DebuggerLogger returns the logger for errors that don't belong to
// any one subsystem above but still need surfacing unconditionally.
func DebuggerLogger() *logrus.Entry { return entry(debuggerFlag) }

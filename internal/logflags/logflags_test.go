package logflags

import "testing"

func TestSetupEnablesNamedSubsystems(t *testing.T) {
	enabled = map[string]bool{}
	if err := Setup(false, "stack,python"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !Stack() || !Python() {
		t.Fatal("expected stack and python to be enabled")
	}
	if Probe() || Transport() {
		t.Fatal("expected probe and transport to remain disabled")
	}
}

func TestSetupRejectsUnknownSubsystem(t *testing.T) {
	enabled = map[string]bool{}
	if err := Setup(false, "nonsense"); err == nil {
		t.Fatal("expected an error for an unknown subsystem name")
	}
}

func TestLoggersAreNonNil(t *testing.T) {
	for _, l := range []interface{ Debugf(string, ...any) }{
		StackLogger(), PythonLogger(), ProbeLogger(), TransportLogger(), DebuggerLogger(),
	} {
		if l == nil {
			t.Fatal("expected a non-nil logger")
		}
	}
}

package probe

import "testing"

func TestScopeString(t *testing.T) {
	if got := SystemWide().String(); got != "system-wide" {
		t.Fatalf("SystemWide().String() = %q", got)
	}
	if got := OfPid(42).String(); got != "pid:42" {
		t.Fatalf("OfPid(42).String() = %q", got)
	}
}

func TestProbeConstructors(t *testing.T) {
	p := NewPerfProbe(SystemWide(), 1_000_000)
	if p.Kind != KindPerf || p.PeriodNs != 1_000_000 {
		t.Fatalf("NewPerfProbe = %+v", p)
	}

	u := NewUprobe(OfPid(7), "/usr/bin/python3.10", "_PyEval_EvalFrameDefault")
	if u.Kind != KindUprobe || u.Symbol != "_PyEval_EvalFrameDefault" {
		t.Fatalf("NewUprobe = %+v", u)
	}
}

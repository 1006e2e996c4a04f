package main

import "testing"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"table", "symbols", "processes", "sample", "uprobe"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q to be registered, got err=%v", name, err)
		}
	}
}

func TestHostArchMatchesRunningArchitecture(t *testing.T) {
	if _, err := hostArch(); err != nil {
		t.Fatalf("hostArch: %v (test is only expected to run on amd64/arm64 CI)", err)
	}
}

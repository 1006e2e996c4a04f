package symbol

import (
	"strings"
	"testing"
)

func TestParseKallsyms(t *testing.T) {
	input := strings.Join([]string{
		"0000000000000000 t ignored_zero_addr",
		"ffffffff81000000 T _text",
		"ffffffff81001000 t do_syscall_64",
		"ffffffff81002000 r some_rodata",
	}, "\n") + "\n"

	ks, err := parseKallsyms(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseKallsyms: %v", err)
	}

	name, ok := ks.Resolve(0xffffffff81001500)
	if !ok || name != "do_syscall_64" {
		t.Fatalf("Resolve(...1500) = %q, %v, want do_syscall_64, true", name, ok)
	}
	if _, ok := ks.Resolve(0x1); ok {
		t.Fatal("expected no match below the first real symbol")
	}
}

package symbol

import (
	"testing"

	"github.com/0b01/tail2-go/pkg/procinfo"
	"github.com/0b01/tail2-go/pkg/sample"
)

func TestFindMapping(t *testing.T) {
	mappings := []procinfo.Mapping{
		{Start: 0x1000, End: 0x2000, Perms: "r-xp", Path: "/usr/bin/app"},
		{Start: 0x2000, End: 0x3000, Perms: "rw-p", Path: "/usr/bin/app"},
	}
	m, ok := findMapping(mappings, 0x1500)
	if !ok || m.Path != "/usr/bin/app" {
		t.Fatalf("findMapping(0x1500) = %+v, %v", m, ok)
	}
	if _, ok := findMapping(mappings, 0x2500); ok {
		t.Fatal("expected the non-executable mapping to be skipped")
	}
}

func TestResolvePython(t *testing.T) {
	var stack sample.PythonStack
	copy(stack.Frames[0].Name[:], "run")
	copy(stack.Frames[0].ClassName[:], "Worker")
	copy(stack.Frames[0].File[:], "worker.py")
	stack.Frames[0].Lineno = 7
	stack.Len = 1

	frames := ResolvePython(&stack)
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1", len(frames))
	}
	if frames[0].Function != "Worker.run" || frames[0].File != "worker.py" || frames[0].Line != 7 {
		t.Fatalf("frame = %+v", frames[0])
	}
}

func TestResolvePythonNilStack(t *testing.T) {
	if frames := ResolvePython(nil); frames != nil {
		t.Fatalf("ResolvePython(nil) = %v, want nil", frames)
	}
}

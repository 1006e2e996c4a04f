package procinfo

import "testing"

func TestParseVersionTriple(t *testing.T) {
	cases := []struct {
		in   string
		want PythonVersion
		ok   bool
	}{
		{"3.10.4", PythonVersion{3, 10, 4}, true},
		{"3.8.10+", PythonVersion{3, 8, 10}, true},
		{"3.8", PythonVersion{3, 8, 0}, true},
		{"garbage", PythonVersion{}, false},
	}
	for _, c := range cases {
		got, ok := parseVersionTriple(c.in)
		if ok != c.ok {
			t.Fatalf("parseVersionTriple(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("parseVersionTriple(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestFindVersionAfterMarker(t *testing.T) {
	buf := append([]byte("junk before python3.10"), append([]byte("3.10.4\x00"), []byte("trailing")...)...)
	v, ok := findVersionAfterMarker(buf, "python3.10")
	if !ok {
		t.Fatal("expected to find a version")
	}
	if v != (PythonVersion{3, 10, 4}) {
		t.Fatalf("version = %+v, want 3.10.4", v)
	}
}

func TestFindVersionAfterMarkerNoMatch(t *testing.T) {
	if _, ok := findVersionAfterMarker([]byte("no marker here"), "python3.10"); ok {
		t.Fatal("expected no match")
	}
}

package pyoffsets

import "testing"

func TestLookupExactVersions(t *testing.T) {
	cases := []struct {
		major, minor int
		wantMinor    int
	}{
		{2, 7, 7},
		{3, 6, 6},
		{3, 7, 7},
		{3, 8, 8},
		{3, 9, 9},
		{3, 10, 10},
	}
	for _, c := range cases {
		o, ok := Lookup(c.major, c.minor)
		if !ok {
			t.Fatalf("Lookup(%d,%d) not found", c.major, c.minor)
		}
		if o.Version.Minor != c.wantMinor {
			t.Fatalf("Lookup(%d,%d).Version.Minor = %d, want %d", c.major, c.minor, o.Version.Minor, c.wantMinor)
		}
	}
}

func TestLookupFallsBackToNearestPreceding(t *testing.T) {
	// 3.11 isn't in the table; it should resolve to the newest entry
	// that doesn't exceed it, which is 3.10.
	o, ok := Lookup(3, 11)
	if !ok || o.Version.Minor != 10 {
		t.Fatalf("Lookup(3,11) = %+v, %v", o, ok)
	}
}

func TestLookupUnknownMajor(t *testing.T) {
	if _, ok := Lookup(4, 0); ok {
		t.Fatal("expected no match for an unknown major version")
	}
}

func TestPy310FirstArgNameDisabled(t *testing.T) {
	o, ok := Lookup(3, 10)
	if !ok {
		t.Fatal("expected 3.10 offsets")
	}
	if o.FirstArgNameEnabled {
		t.Fatal("expected first-argument-name resolution disabled on 3.10")
	}
	if o.String.Size != -1 {
		t.Fatalf("String.Size = %d, want -1 (unresolved)", o.String.Size)
	}
}

func TestPy39MatchesPy38Layout(t *testing.T) {
	o38, _ := Lookup(3, 8)
	o39, _ := Lookup(3, 9)
	o38.Version = VersionTuple{}
	o39.Version = VersionTuple{}
	if o38 != o39 {
		t.Fatalf("3.9 layout diverges from 3.8: %+v vs %+v", o39, o38)
	}
}

package preview

import "testing"

func TestCommandPerPlatform(t *testing.T) {
	cases := []struct {
		goos string
		name string
	}{
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"darwin", "open"},
		{"windows", "rundll32"},
	}
	for _, tc := range cases {
		name, args := Command(tc.goos, "/tmp/out.mp4")
		if name != tc.name {
			t.Fatalf("%s: expected %q, got %q", tc.goos, tc.name, name)
		}
		if args[len(args)-1] != "/tmp/out.mp4" {
			t.Fatalf("%s: expected path as last arg, got %v", tc.goos, args)
		}
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

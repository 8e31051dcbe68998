package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldT := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldT })

	Version = "v1.2.0"
	GitSHA = "0123456789abcdef"
	BuildTime = "2026-01-02T03:04:05Z"

	want := "v1.2.0 (0123456, built 2026-01-02T03:04:05Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	GitSHA = "abc"
	want = "v1.2.0 (abc, built 2026-01-02T03:04:05Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

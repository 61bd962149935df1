package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	got := String()
	if !strings.HasPrefix(got, "docweave v1.2.3 ") {
		t.Fatalf("unexpected version line %q", got)
	}
	if !strings.Contains(got, "commit "+GitCommit) {
		t.Errorf("commit missing from %q", got)
	}
}

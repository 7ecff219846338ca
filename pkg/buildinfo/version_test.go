package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetPrefersLdflags(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-02T03:04:05Z"
	got := Get()
	if got.Version != "v1.2.3" || got.Commit != "abc123" || got.Date != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", got)
	}
	if got.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", got.GoVersion)
	}
}

func TestTemplate(t *testing.T) {
	oldV := Version
	t.Cleanup(func() { Version = oldV })

	Version = "v0.9.0"
	if tpl := Template(); !strings.HasPrefix(tpl, "{{.Name}} version v0.9.0\n") {
		t.Errorf("Template() = %q", tpl)
	}
	if s := String(); !strings.Contains(s, "version: v0.9.0") {
		t.Errorf("String() = %q", s)
	}
}

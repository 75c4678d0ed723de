package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.3.1"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T10:00:00Z"},
			},
		}, true
	})
	if info.Version != "v0.3.1" {
		t.Fatalf("expected module version, got %q", info.Version)
	}
	if got := format(info); got != "v0.3.1 (0123456789ab)" {
		t.Fatalf("unexpected string %q", got)
	}
	if info.BuildTime != "2026-10-01T10:00:00Z" {
		t.Fatalf("expected vcs time, got %q", info.BuildTime)
	}
}

func TestResolveDevel(t *testing.T) {
	t.Parallel()

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	})
	if info.Version != devel {
		t.Fatalf("expected %q, got %q", devel, info.Version)
	}
	if got := format(info); got != devel {
		t.Fatalf("unexpected string %q", got)
	}
}

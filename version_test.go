package main

import (
	"runtime/debug"
	"testing"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"release tag returned as-is", "v0.4.0", "0123456789abcdef", "v0.4.0"},
		{"dev with commit uses short sha", "dev", "0123456789abcdef", "dev-0123456"},
		{"dev with unknown commit", "dev", "unknown", "dev"},
		{"empty version falls back to dev", "  ", "abcdef1", "dev-abcdef1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatVersion(tt.version, tt.commit); got != tt.want {
				t.Fatalf("formatVersion(%q, %q) = %q, want %q", tt.version, tt.commit, got, tt.want)
			}
		})
	}
}

func TestVersionFromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		Main:     debug.Module{Path: "github.com/Limetric/pgdelta", Version: "v0.3.1"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fedcba9876543210"}},
	}

	version, commit := versionFromBuildInfo(info, "dev", "unknown")
	if version != "v0.3.1" || commit != "fedcba9876543210" {
		t.Errorf("versionFromBuildInfo() = %q, %q", version, commit)
	}

	version, commit = versionFromBuildInfo(info, "v1.0.0", "abc1234")
	if version != "v1.0.0" || commit != "abc1234" {
		t.Errorf("ldflags values should win, got %q, %q", version, commit)
	}

	info.Main.Version = "(devel)"
	if version, _ := versionFromBuildInfo(info, "dev", "unknown"); version != "dev" {
		t.Errorf("(devel) build version = %q, want dev", version)
	}
}

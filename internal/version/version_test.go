package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "tidy table completion")
	assert.Contains(t, info.String(), "Go Version:")
	assert.Equal(t, IsRelease(), info.Release)
}

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     BuildInfo
		contains []string
		absent   []string
	}{
		{
			name: "full",
			info: BuildInfo{
				Version:   "v1.0.0",
				BuildDate: "2024-01-01T00:00:00Z",
				GitCommit: "abc123def456",
				GoVersion: "go1.24.4",
				Release:   true,
				Main:      Module{Path: "github.com/paveg/tidy"},
			},
			contains: []string{
				"Version: v1.0.0\n",
				"Build Date: 2024-01-01T00:00:00Z",
				"Git Commit: abc123d\n",
				"Go Version: go1.24.4",
				"Module: github.com/paveg/tidy",
			},
		},
		{
			name:     "dirty",
			info:     BuildInfo{Version: "v1.0.0", GitCommit: "abc123-dirty", Dirty: true, Release: true, BuildDate: unknownValue},
			contains: []string{"Version: v1.0.0 (dirty)\n", "Git Commit: abc123\n"},
			absent:   []string{"Build Date"},
		},
		{
			name:     "development build",
			info:     BuildInfo{Version: "dev", GitCommit: unknownValue, BuildDate: unknownValue},
			contains: []string{"Version: dev (development build)\n"},
			absent:   []string{"Git Commit", "Module:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.info.String()
			for _, want := range tt.contains {
				assert.Contains(t, s, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, s, unwanted)
			}
		})
	}
}

func TestIsRelease(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"v1.2.3", true},
		{"v1.2.3-rc.1", false},
	}
	for _, tt := range tests {
		Version = tt.version
		assert.Equal(t, tt.want, IsRelease(), tt.version)
	}
}

//nolint:testpackage // overrides package-level build variables
package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })
}

func TestInfo(t *testing.T) {
	withVersion(t, "v0.3.0", "abcdef1234567-dirty")

	info := Info()
	assert.Equal(t, "v0.3.0", info.Version)
	assert.True(t, info.Dirty)

	s := info.String()
	assert.Contains(t, s, "scmframe climate ensemble toolkit")
	assert.Contains(t, s, "Version: v0.3.0 (dirty)")
	assert.Contains(t, s, "Git Commit: abcdef1")
	assert.Contains(t, s, "Go Version:")
}

func TestStack(t *testing.T) {
	deps := []*debug.Module{
		{Path: "gonum.org/v1/gonum", Version: "v0.16.0"},
		{Path: "github.com/spf13/cobra", Version: "v1.10.2"},
		{Path: "github.com/apache/arrow-go/v18", Version: "v18.3.1"},
	}

	assert.Equal(t, []Module{
		{Path: "github.com/apache/arrow-go/v18", Version: "v18.3.1"},
		{Path: "gonum.org/v1/gonum", Version: "v0.16.0"},
	}, stack(deps))
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version  string
		expected bool
	}{
		{"dev", false},
		{"v1.0.0", true},
		{"v1.1.0-rc.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withVersion(t, tt.version, unknownValue)
			assert.Equal(t, tt.expected, IsRelease())
		})
	}
}

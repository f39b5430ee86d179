package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	origVersion := Version
	origBuildTime := BuildTime
	origCommit := Commit

	defer func() {
		Version = origVersion
		BuildTime = origBuildTime
		Commit = origCommit
	}()

	Version = "1.0.0"
	BuildTime = "2026-01-01"
	Commit = "abcdef0123456789"

	info := Info()

	assert.Contains(t, info, "1.0.0")
	assert.Contains(t, info, "abcdef01")
	assert.Contains(t, info, "2026-01-01")
	assert.Contains(t, info, runtime.GOOS)
	assert.Contains(t, info, runtime.GOARCH)

	// Short commits are used as-is.
	Commit = "abc123"
	assert.Contains(t, Info(), "abc123")
}

func TestMap(t *testing.T) {
	m := Map()

	assert.Equal(t, Version, m["version"])
	assert.Equal(t, Commit, m["commit"])
	assert.Equal(t, runtime.GOOS, m["os"])
	assert.Equal(t, runtime.GOARCH, m["arch"])
	assert.Equal(t, runtime.Version(), m["goVersion"])
}

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorizeRespectsToggle(t *testing.T) {
	orig := IsColorEnabled()
	defer EnableColor(orig)

	EnableColor(true)
	assert.Equal(t, Green+"done"+Reset, Colorize(Green, "done"))

	EnableColor(false)
	assert.Equal(t, "done", Colorize(Green, "done"))
}

func TestStatusLabel(t *testing.T) {
	orig := IsColorEnabled()
	defer EnableColor(orig)

	EnableColor(false)
	assert.Equal(t, "ok", StatusLabel(true))
	assert.Equal(t, "failed", StatusLabel(false))
}

func TestCountSummary(t *testing.T) {
	assert.Equal(t, "backup complete: 3/3 succeeded", CountSummary("backup", 3, 3, 0))
	assert.Equal(t, "restore complete: 2/3 succeeded, 1 failed", CountSummary("restore", 3, 2, 1))
}

func TestByteSize(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, ByteSize(tc.in))
	}
}

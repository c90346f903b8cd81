package service

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0d 0h 0m"},
		{90 * time.Second, "0d 0h 2m"},
		{26*time.Hour + 5*time.Minute, "1d 2h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in))
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "1.50MB", formatBytes(3*512*1024))
}

func TestSystemInfoSnapshot(t *testing.T) {
	svc := NewSystemInfoService()
	info := svc.Snapshot()

	assert.NotEmpty(t, info.Hostname)
	assert.Equal(t, runtime.GOOS, info.Platform)
	assert.Equal(t, runtime.NumCPU(), info.CPUs.Count)
	assert.Contains(t, info.Memory.HeapAlloc, "MB")
	assert.Zero(t, info.Connections)
	assert.WithinDuration(t, time.Now(), info.Timestamp, time.Minute)

	v := svc.Version()
	assert.Equal(t, "studyroom-be", v.Name)
	assert.NotEmpty(t, v.StartedAt)
}

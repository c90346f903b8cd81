package service

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/model"
)

const appName = "studyroom-be"

type SystemInfoService struct {
	startedAt time.Time
	locale    string
}

func NewSystemInfoService() *SystemInfoService {
	locale := os.Getenv("LANG")
	if locale == "" {
		locale = "unknown"
	}
	return &SystemInfoService{startedAt: time.Now(), locale: locale}
}

// Snapshot reports host and runtime status. Connections is left at zero.
func (s *SystemInfoService) Snapshot() model.SystemInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	zone, _ := time.Now().Zone()

	return model.SystemInfo{
		Hostname: hostname,
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUs:     model.CPUInfo{Count: runtime.NumCPU()},
		Memory: model.MemoryInfo{
			Sys:       formatBytes(mem.Sys),
			HeapAlloc: formatBytes(mem.HeapAlloc),
			HeapInUse: formatBytes(mem.HeapInuse),
		},
		Uptime:     formatUptime(time.Since(s.startedAt)),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Timezone:   zone,
		Locale:     s.locale,
		Timestamp:  time.Now().UTC(),
	}
}

// Version reports module and VCS information embedded at build time.
func (s *SystemInfoService) Version() dto.VersionResponse {
	resp := dto.VersionResponse{
		Name:      appName,
		Version:   "(devel)",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		StartedAt: s.startedAt.UTC().Format(time.RFC3339),
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return resp
	}
	if info.Main.Version != "" {
		resp.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			resp.Git.Commit = setting.Value
		case "vcs.time":
			resp.Git.Time = setting.Value
		case "vcs.modified":
			resp.Git.IsDirty = setting.Value == "true"
		}
	}
	return resp
}

func formatBytes(b uint64) string {
	return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	return fmt.Sprintf("%dd %dh %dm", days, hours, d/time.Minute)
}

package model

import "time"

type SystemInfo struct {
	Hostname    string     `json:"hostname"`
	Platform    string     `json:"platform"`
	Arch        string     `json:"arch"`
	CPUs        CPUInfo    `json:"cpus"`
	Memory      MemoryInfo `json:"memory"`
	Uptime      string     `json:"uptime"`
	GoVersion   string     `json:"goVersion"`
	Goroutines  int        `json:"goroutines"`
	Connections int        `json:"connections"`
	Timezone    string     `json:"timezone"`
	Locale      string     `json:"locale"`
	Timestamp   time.Time  `json:"timestamp"`
}

type CPUInfo struct {
	Count int `json:"count"`
}

type MemoryInfo struct {
	Sys       string `json:"sys"`
	HeapAlloc string `json:"heapAlloc"`
	HeapInUse string `json:"heapInUse"`
}

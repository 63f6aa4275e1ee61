// Package diag collects host and process diagnostics for the status API
// and the daemon's startup log, using gopsutil rather than hand-rolled
// /proc parsing.
package diag

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time read of host and daemon process health.
type Snapshot struct {
	Goroutines    int           `json:"goroutines"`
	OpenFDs       int32         `json:"open_fds"`
	ProcessUptime time.Duration `json:"process_uptime"`
	HostUptime    uint64        `json:"host_uptime_seconds"`
	CPUPercent    float64       `json:"cpu_percent"`
	MemUsedBytes  uint64        `json:"mem_used_bytes"`
	MemTotalBytes uint64        `json:"mem_total_bytes"`
	CollectedAt   time.Time     `json:"collected_at"`
}

// Collector caches the daemon's own process handle so repeated snapshots
// don't re-resolve the PID every call.
type Collector struct {
	proc      *process.Process
	startedAt time.Time
}

// NewCollector opens a handle to the calling process.
func NewCollector() (*Collector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: p, startedAt: time.Now()}, nil
}

// Collect gathers one Snapshot. Individual sub-collectors that fail (e.g.
// on a platform gopsutil only partially supports) leave their fields
// zeroed rather than failing the whole snapshot.
func (c *Collector) Collect() Snapshot {
	snap := Snapshot{
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now(),
	}

	if fds, err := c.proc.NumFDs(); err == nil {
		snap.OpenFDs = fds
	}
	snap.ProcessUptime = time.Since(c.startedAt)

	if uptime, err := host.Uptime(); err == nil {
		snap.HostUptime = uptime
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsedBytes = vm.Used
		snap.MemTotalBytes = vm.Total
	}

	return snap
}

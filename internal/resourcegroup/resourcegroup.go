// SPDX-License-Identifier: MIT
// C5: per-task cgroup-like container of CPU quota and memory cap.
//
// No cgroup binding exists anywhere in the example corpus (the closest
// is service/system's Unix-privilege helpers); this component talks
// directly to the cgroup v2 filesystem interface, the same file-write
// style the teacher uses elsewhere for OS integration
// (server/daemon/daemon_unix.go's SysProcAttr plumbing).
package resourcegroup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	cgroupRoot   = "/sys/fs/cgroup"
	cpuPeriodUs  = 1000
)

// ResourceGroup is one task's cgroup-like resource container, named
// "queued-task-<id>" per spec.md §4.5.
type ResourceGroup struct {
	name string
	dir  string
}

// New returns (without creating) the resource group for taskID.
func New(taskID int64) *ResourceGroup {
	name := fmt.Sprintf("queued-task-%d", taskID)
	return &ResourceGroup{name: name, dir: filepath.Join(cgroupRoot, name)}
}

// Name returns the group's cgroup name.
func (g *ResourceGroup) Name() string { return g.name }

// Create creates the backing cgroup directory.
func (g *ResourceGroup) Create() error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("resourcegroup: create %s: %w", g.name, err)
	}
	return nil
}

// Remove deletes the backing cgroup directory.
func (g *ResourceGroup) Remove() error {
	if err := os.Remove(g.dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("resourcegroup: remove %s: %w", g.name, err)
	}
	return nil
}

// Attach writes pid into the group's process-attachment file.
func (g *ResourceGroup) Attach(pid int) error {
	return g.writeFile("cgroup.procs", fmt.Sprintf("%d", pid))
}

// SetCPULimit writes a CPU quota encoded as period=1000 scaled by host
// CPU count, per spec.md §4.5: shares==0 means "leave at host maximum".
func (g *ResourceGroup) SetCPULimit(shares int64) error {
	if shares == 0 {
		return g.writeFile("cpu.max", "max 100000")
	}
	quota := shares * cpuPeriodUs * int64(runtime.NumCPU())
	return g.writeFile("cpu.max", fmt.Sprintf("%d %d", quota, cpuPeriodUs))
}

// CPULimit reads back the raw quota integer multiplied by
// hostCpuCount/1000, per spec.md §4.5.
func (g *ResourceGroup) CPULimit() (int64, error) {
	raw, err := g.readFile("cpu.max")
	if err != nil {
		return 0, err
	}
	var quota, period int64
	if _, err := fmt.Sscanf(raw, "%d %d", &quota, &period); err != nil {
		return 0, nil
	}
	if period == 0 {
		period = cpuPeriodUs
	}
	return quota * int64(runtime.NumCPU()) / period, nil
}

// SetMemoryLimit writes bytes as the group's memory cap; 0 means "leave
// at host maximum".
func (g *ResourceGroup) SetMemoryLimit(bytes int64) error {
	if bytes == 0 {
		return g.writeFile("memory.max", "max")
	}
	return g.writeFile("memory.max", fmt.Sprintf("%d", bytes))
}

func (g *ResourceGroup) writeFile(name, value string) error {
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("resourcegroup: write %s: %w", path, err)
	}
	return nil
}

func (g *ResourceGroup) readFile(name string) (string, error) {
	path := filepath.Join(g.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("resourcegroup: read %s: %w", path, err)
	}
	return string(data), nil
}

// HostCPUCount is the admission engine's view of total host CPU shares.
func HostCPUCount() int64 {
	return int64(runtime.NumCPU())
}

// CPUWeight is n/hostCpuCount clamped to 1.0 when n==0 or n>=hostCpuCount,
// per spec.md §4.5.
func CPUWeight(n int64) float64 {
	hostCPU := HostCPUCount()
	if n == 0 || n >= hostCPU {
		return 1.0
	}
	return float64(n) / float64(hostCPU)
}

// MemoryWeight is b/hostMemoryBytes clamped to 1.0 when b==0 or
// b>=hostMemoryBytes, per spec.md §4.5.
func MemoryWeight(b int64) float64 {
	hostMem := HostMemoryBytes()
	if b == 0 || b >= hostMem {
		return 1.0
	}
	return float64(b) / float64(hostMem)
}

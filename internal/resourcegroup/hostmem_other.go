// SPDX-License-Identifier: MIT
//go:build !linux

package resourcegroup

// HostMemoryBytes falls back to a fixed estimate on non-Linux hosts,
// where no cgroup v2 filesystem exists to enforce against anyway.
func HostMemoryBytes() int64 {
	return 8 * 1024 * 1024 * 1024
}

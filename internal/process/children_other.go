// SPDX-License-Identifier: MIT
//go:build !linux

package process

// ChildrenPids is unsupported outside Linux; there is no portable
// process-tree walk without a cgroup or /proc filesystem to read.
func ChildrenPids(root int) []int {
	return nil
}

// SPDX-License-Identifier: MIT
//go:build linux

package process

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ChildrenPids walks /proc scanning each process's stat line for a parent
// pid match, returning the full descendant set of root (BFS over the
// process tree), per spec.md §4.6's "kill children before killing root".
func ChildrenPids(root int) []int {
	parents := make(map[int]int)

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, ok := readParentPid(pid)
		if !ok {
			continue
		}
		parents[pid] = ppid
	}

	var out []int
	queue := []int{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for pid, ppid := range parents {
			if ppid == cur {
				out = append(out, pid)
				queue = append(queue, pid)
			}
		}
	}
	return out
}

func readParentPid(pid int) (int, bool) {
	f, err := os.Open(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false
	}
	// Fields after the ")" that closes the process name: state ppid ...
	line := scanner.Text()
	idx := strings.LastIndex(line, ")")
	if idx < 0 || idx+2 >= len(line) {
		return 0, false
	}
	fields := strings.Fields(line[idx+2:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return ppid, true
}

// pidAlive reports whether pid still exists, via a zero-signal probe.
func pidAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

// SPDX-License-Identifier: MIT
package model

import (
	"strconv"
	"strings"
)

// Limits is the five-axis resource quota tuple. Zero on any axis means
// "unbounded on that axis" per spec.md §3.
type Limits struct {
	CPU       int64
	GPU       int64
	Memory    int64
	GPUMemory int64
	Storage   int64
}

// axisOrder is the wire-compatible persisted order: cpu,gpu,memory,gpumemory,storage.
var axisOrder = 5

// EncodeLimits renders the limits string encoding: five decimal integers
// joined by LF, in order cpu,gpu,memory,gpumemory,storage.
func EncodeLimits(l Limits) string {
	parts := []string{
		strconv.FormatInt(l.CPU, 10),
		strconv.FormatInt(l.GPU, 10),
		strconv.FormatInt(l.Memory, 10),
		strconv.FormatInt(l.GPUMemory, 10),
		strconv.FormatInt(l.Storage, 10),
	}
	return strings.Join(parts, "\n")
}

// DecodeLimits parses the persisted limits string. Fewer than five lines
// are right-padded with "0"; unparsable lines are treated as 0.
func DecodeLimits(s string) Limits {
	lines := strings.Split(s, "\n")
	for len(lines) < axisOrder {
		lines = append(lines, "0")
	}
	vals := make([]int64, axisOrder)
	for i := 0; i < axisOrder; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(lines[i]), 10, 64)
		if err != nil {
			v = 0
		}
		vals[i] = v
	}
	return Limits{CPU: vals[0], GPU: vals[1], Memory: vals[2], GPUMemory: vals[3], Storage: vals[4]}
}

// minAxis returns the per-axis minimum treating 0 as "no constraint": 0
// loses to any positive value; if all given values are 0 the result is 0.
func minAxis(values ...int64) int64 {
	result := int64(0)
	for _, v := range values {
		if v == 0 {
			continue
		}
		if result == 0 || v < result {
			result = v
		}
	}
	return result
}

// MinimalLimits computes, per axis, min({task, user, default}) with 0
// treated as +infinity, per spec.md §4.9.
func MinimalLimits(task, user, def Limits) Limits {
	return Limits{
		CPU:       minAxis(task.CPU, user.CPU, def.CPU),
		GPU:       minAxis(task.GPU, user.GPU, def.GPU),
		Memory:    minAxis(task.Memory, user.Memory, def.Memory),
		GPUMemory: minAxis(task.GPUMemory, user.GPUMemory, def.GPUMemory),
		Storage:   minAxis(task.Storage, user.Storage, def.Storage),
	}
}

// ParseMemoryLiteral parses CLI/HTTP memory inputs: a decimal integer, or
// a decimal integer suffixed with K/M/G meaning x1024/x1024^2/x1024^3.
func ParseMemoryLiteral(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	suffix := s[len(s)-1]
	switch suffix {
	case 'K', 'k':
		mult = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}

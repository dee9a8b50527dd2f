// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

func runTaskAdd(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s task-add [flags] <command> [args...]", BinaryName)
	}

	var workdir string
	var uid, gid, nice int
	var cpu, gpu, memory, gpuMemory, storage int64
	var rest []string

	i := 0
	for i < len(args) {
		switch args[i] {
		case "--workdir":
			if i+1 < len(args) {
				workdir = args[i+1]
				i++
			}
		case "--uid":
			if i+1 < len(args) {
				uid = atoi(args[i+1])
				i++
			}
		case "--gid":
			if i+1 < len(args) {
				gid = atoi(args[i+1])
				i++
			}
		case "--nice":
			if i+1 < len(args) {
				nice = atoi(args[i+1])
				i++
			}
		case "--cpu":
			if i+1 < len(args) {
				cpu = atoi64(args[i+1])
				i++
			}
		case "--gpu":
			if i+1 < len(args) {
				gpu = atoi64(args[i+1])
				i++
			}
		case "--memory":
			if i+1 < len(args) {
				memory = atoi64(args[i+1])
				i++
			}
		case "--gpu-memory":
			if i+1 < len(args) {
				gpuMemory = atoi64(args[i+1])
				i++
			}
		case "--storage":
			if i+1 < len(args) {
				storage = atoi64(args[i+1])
				i++
			}
		default:
			rest = append(rest, args[i])
		}
		i++
	}

	if len(rest) == 0 {
		return fmt.Errorf("a command is required")
	}

	body := map[string]any{
		"command":           rest[0],
		"arguments":         rest[1:],
		"working_directory": workdir,
		"uid":               uid,
		"gid":               gid,
		"nice":              nice,
		"limits": map[string]int64{
			"CPU":       cpu,
			"GPU":       gpu,
			"Memory":    memory,
			"GPUMemory": gpuMemory,
			"Storage":   storage,
		},
	}

	data, err := client.AddTask(body)
	if err != nil {
		return fmt.Errorf("adding task: %w", err)
	}
	return printJSON(data)
}

func runTaskGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s task-get <id>", BinaryName)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", args[0], err)
	}
	data, err := client.GetTask(id)
	if err != nil {
		return fmt.Errorf("fetching task: %w", err)
	}
	return printJSON(data)
}

func runTaskSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s task-set <id> <field>=<value>...", BinaryName)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", args[0], err)
	}

	body := make(map[string]any)
	for _, kv := range args[1:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid field %q, expected field=value", kv)
		}
		switch parts[0] {
		case "command":
			body["command"] = parts[1]
		case "arguments":
			body["arguments"] = strings.Fields(parts[1])
		case "workdir":
			body["working_directory"] = parts[1]
		case "uid":
			body["uid"] = atoi(parts[1])
		case "gid":
			body["gid"] = atoi(parts[1])
		case "nice":
			body["nice"] = atoi(parts[1])
		default:
			return fmt.Errorf("unknown field: %s", parts[0])
		}
	}

	if err := client.EditTask(id, body); err != nil {
		return fmt.Errorf("editing task: %w", err)
	}
	fmt.Printf("Updated task %d\n", id)
	return nil
}

func runTaskStart(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s task-start <id>", BinaryName)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", args[0], err)
	}
	if err := client.StartTask(id); err != nil {
		return fmt.Errorf("starting task: %w", err)
	}
	fmt.Printf("Started task %d\n", id)
	return nil
}

func runTaskStop(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s task-stop <id>", BinaryName)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", args[0], err)
	}
	if err := client.StopTask(id); err != nil {
		return fmt.Errorf("stopping task: %w", err)
	}
	fmt.Printf("Stopped task %d\n", id)
	return nil
}

func runTaskList(args []string) error {
	var user, from, to string
	i := 0
	for i < len(args) {
		switch args[i] {
		case "--user-id":
			if i+1 < len(args) {
				user = args[i+1]
				i++
			}
		case "--from":
			if i+1 < len(args) {
				from = args[i+1]
				i++
			}
		case "--to":
			if i+1 < len(args) {
				to = args[i+1]
				i++
			}
		}
		i++
	}

	data, err := client.ListTasks(user, from, to)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	return printJSON(data)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strings"
)

func runPluginAdd(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s plugin-add <name> <kind> [key=value...]", BinaryName)
	}
	name, kind := args[0], args[1]
	opts := make(map[string]string)
	for _, kv := range args[2:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid option %q, expected key=value", kv)
		}
		opts[parts[0]] = parts[1]
	}
	if err := client.AddPlugin(name, kind, opts); err != nil {
		return fmt.Errorf("adding plugin: %w", err)
	}
	fmt.Printf("Loaded plugin %s (%s)\n", name, kind)
	return nil
}

func runPluginRemove(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s plugin-remove <name>", BinaryName)
	}
	if err := client.RemovePlugin(args[0]); err != nil {
		return fmt.Errorf("removing plugin: %w", err)
	}
	fmt.Printf("Removed plugin %s\n", args[0])
	return nil
}

func runPluginList(args []string) error {
	names, err := client.ListPlugins()
	if err != nil {
		return fmt.Errorf("listing plugins: %w", err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runPluginOptions(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s plugin-options <name>", BinaryName)
	}
	info, err := client.GetPlugin(args[0])
	if err != nil {
		return fmt.Errorf("fetching plugin: %w", err)
	}
	for k, v := range info.Options {
		fmt.Printf("%s = %s\n", k, v)
	}
	return nil
}

func runPluginSpecification(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s plugin-specification <name>", BinaryName)
	}
	info, err := client.GetPlugin(args[0])
	if err != nil {
		return fmt.Errorf("fetching plugin: %w", err)
	}
	fmt.Printf("Name:        %s\n", info.Specification.Name)
	fmt.Printf("Version:     %s\n", info.Specification.Version)
	fmt.Printf("Description: %s\n", info.Specification.Description)
	return nil
}

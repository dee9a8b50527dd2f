// SPDX-License-Identifier: MIT
package cmd

import "fmt"

func runOptionGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s option-get <key>", BinaryName)
	}
	value, err := client.GetOption(args[0])
	if err != nil {
		return fmt.Errorf("reading option: %w", err)
	}
	fmt.Println(value)
	return nil
}

func runOptionSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s option-set <key> <value>", BinaryName)
	}
	if err := client.SetOption(args[0], args[1]); err != nil {
		return fmt.Errorf("writing option: %w", err)
	}
	fmt.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

func runUserAdd(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s user-add <name> <password> [field=value...]", BinaryName)
	}
	name, password := args[0], args[1]
	body := map[string]any{"password": password}
	for _, kv := range args[2:] {
		if err := applyUserField(body, kv); err != nil {
			return err
		}
	}
	if err := client.AddOrEditUser(name, body); err != nil {
		return fmt.Errorf("adding user: %w", err)
	}
	fmt.Printf("Created user %s\n", name)
	return nil
}

func runUserGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s user-get <name>", BinaryName)
	}
	data, err := client.GetUser(args[0])
	if err != nil {
		return fmt.Errorf("fetching user: %w", err)
	}
	return printJSON(data)
}

func runUserSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s user-set <name> <field>=<value>...", BinaryName)
	}
	name := args[0]
	body := make(map[string]any)
	for _, kv := range args[1:] {
		if err := applyUserField(body, kv); err != nil {
			return err
		}
	}
	if err := client.AddOrEditUser(name, body); err != nil {
		return fmt.Errorf("editing user: %w", err)
	}
	fmt.Printf("Updated user %s\n", name)
	return nil
}

func runUserList(args []string) error {
	var lastLogged string
	var permission uint64
	i := 0
	for i < len(args) {
		switch args[i] {
		case "--last-logged":
			if i+1 < len(args) {
				lastLogged = args[i+1]
				i++
			}
		case "--permission":
			if i+1 < len(args) {
				permission, _ = strconv.ParseUint(args[i+1], 10, 32)
				i++
			}
		}
		i++
	}

	data, err := client.ListUsers(lastLogged, uint32(permission))
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	return printJSON(data)
}

func applyUserField(body map[string]any, kv string) error {
	parts := strings.SplitN(kv, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid field %q, expected field=value", kv)
	}
	switch parts[0] {
	case "email":
		body["email"] = parts[1]
	case "password":
		body["password"] = parts[1]
	case "permissions":
		perm, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid permissions %q: %w", parts[1], err)
		}
		body["permissions"] = uint32(perm)
	case "priority":
		prio, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid priority %q: %w", parts[1], err)
		}
		body["priority"] = prio
	default:
		return fmt.Errorf("unknown field: %s", parts[0])
	}
	return nil
}

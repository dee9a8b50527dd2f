// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strconv"
)

func runPermissionAdd(args []string) error {
	userID, perm, err := parsePermissionArgs(args)
	if err != nil {
		return err
	}
	if err := client.AddPermission(userID, perm); err != nil {
		return fmt.Errorf("granting permission: %w", err)
	}
	fmt.Printf("Granted permission %d to user %d\n", perm, userID)
	return nil
}

func runPermissionRemove(args []string) error {
	userID, perm, err := parsePermissionArgs(args)
	if err != nil {
		return err
	}
	if err := client.RemovePermission(userID, perm); err != nil {
		return fmt.Errorf("revoking permission: %w", err)
	}
	fmt.Printf("Revoked permission %d from user %d\n", perm, userID)
	return nil
}

func parsePermissionArgs(args []string) (int64, uint32, error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("usage: %s permission-add|permission-remove <userID> <permission>", BinaryName)
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user id %q: %w", args[0], err)
	}
	perm, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid permission %q: %w", args[1], err)
	}
	return userID, uint32(perm), nil
}

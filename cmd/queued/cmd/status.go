// SPDX-License-Identifier: MIT
package cmd

import "fmt"

func runStatus(args []string) error {
	data, err := client.Status()
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}
	return printJSON(data)
}

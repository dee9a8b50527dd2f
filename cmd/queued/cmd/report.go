// SPDX-License-Identifier: MIT
package cmd

import "fmt"

func runReport(args []string) error {
	var from, to string
	i := 0
	for i < len(args) {
		switch args[i] {
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

	data, err := client.Report(from, to)
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}
	return printJSON(data)
}

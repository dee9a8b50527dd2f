// SPDX-License-Identifier: MIT
// Shared response rendering: table output for humans, raw JSON for
// scripting (-o json), grounded on client/cmd/search.go's
// tabwriter-based table rendering.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

func printJSON(raw json.RawMessage) error {
	if cfg.Output.Format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			fmt.Println(string(raw))
			return nil
		}
		fmt.Println(buf.String())
		return nil
	}

	// Table mode: try object-of-rows or array-of-rows; fall back to
	// indented JSON when the shape doesn't fit a table.
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		printTable(rows)
		return nil
	}

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil {
		printTable([]map[string]any{single})
		return nil
	}

	var buf bytes.Buffer
	json.Indent(&buf, raw, "", "  ")
	fmt.Println(buf.String())
	return nil
}

func printTable(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("(no results)")
		return
	}

	var cols []string
	for k := range rows[0] {
		cols = append(cols, k)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprintf(w, "%v", row[c])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

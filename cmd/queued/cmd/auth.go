// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func runAuth(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s auth <user> <password>", BinaryName)
	}
	token, err := client.Authenticate(args[0], args[1])
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	fmt.Println(token)

	// Persist the token to the config file so later invocations of the
	// CLI pick it up without re-authenticating every call.
	var fileCfg Config
	if data, err := os.ReadFile(cfgFile); err == nil {
		yaml.Unmarshal(data, &fileCfg)
	}
	fileCfg.Server.Address = cfg.Server.Address
	fileCfg.Server.Token = token
	if fileCfg.Server.Timeout == 0 {
		fileCfg.Server.Timeout = 30
	}
	if fileCfg.Output.Format == "" {
		fileCfg.Output.Format = "table"
	}

	if err := os.MkdirAll(filepath.Dir(cfgFile), 0755); err != nil {
		return nil
	}
	data, err := yaml.Marshal(fileCfg)
	if err != nil {
		return nil
	}
	os.WriteFile(cfgFile, []byte("# queued CLI configuration\n\n"+string(data)), 0600)
	return nil
}

// SPDX-License-Identifier: MIT
// Grounded on client/cmd/config.go's show/init/set/get/path subcommands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func runConfig(args []string) error {
	if len(args) == 0 {
		return configShow()
	}

	switch args[0] {
	case "show":
		return configShow()
	case "init":
		return configInit()
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: %s config set <key> <value>", BinaryName)
		}
		return configSet(args[1], args[2])
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s config get <key>", BinaryName)
		}
		return configGet(args[1])
	case "path":
		fmt.Println(cfgFile)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func configShow() error {
	fmt.Printf("Config file: %s\n\n", cfgFile)
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Println("(no config file - using defaults)")
	}
	fmt.Printf("  server.address: %s\n", cfg.Server.Address)
	fmt.Printf("  server.token:   %s\n", maskToken(cfg.Server.Token))
	fmt.Printf("  server.timeout: %d\n", cfg.Server.Timeout)
	fmt.Printf("  output.format:  %s\n", cfg.Output.Format)
	return nil
}

func configInit() error {
	dir := filepath.Dir(cfgFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(cfgFile); err == nil {
		return fmt.Errorf("config file already exists: %s", cfgFile)
	}

	var defaultCfg Config
	defaultCfg.Server.Address = "http://localhost:8080"
	defaultCfg.Server.Timeout = 30
	defaultCfg.Output.Format = "table"

	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	content := "# queued CLI configuration\n# " + cfgFile + "\n\n" + string(data)
	if err := os.WriteFile(cfgFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Created config file: %s\n", cfgFile)
	return nil
}

func configSet(key, value string) error {
	var fileCfg Config
	if data, err := os.ReadFile(cfgFile); err == nil {
		yaml.Unmarshal(data, &fileCfg)
	}

	switch key {
	case "server.address":
		fileCfg.Server.Address = value
	case "server.token":
		fileCfg.Server.Token = value
	case "server.timeout":
		fmt.Sscanf(value, "%d", &fileCfg.Server.Timeout)
	case "output.format":
		fileCfg.Output.Format = value
	default:
		return fmt.Errorf("unknown key: %s", key)
	}

	if err := os.MkdirAll(filepath.Dir(cfgFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	content := "# queued CLI configuration\n\n" + string(data)
	if err := os.WriteFile(cfgFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func configGet(key string) error {
	var value string
	switch key {
	case "server.address":
		value = cfg.Server.Address
	case "server.token":
		value = cfg.Server.Token
	case "server.timeout":
		value = fmt.Sprintf("%d", cfg.Server.Timeout)
	case "output.format":
		value = cfg.Output.Format
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	fmt.Println(value)
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "********" + token[len(token)-4:]
}

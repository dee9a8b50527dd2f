// SPDX-License-Identifier: MIT
// Grounded on client/cmd/root.go's manual global-flag parse + config-file
// + env-var precedence chain, generalized from a single search shortcut
// to queued's task/user/option/permission/plugin/report/status command
// surface (spec.md §6).
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/queued/queued/pkg/api"
)

// Build info, set by main.go.
var (
	Version    = "dev"
	CommitID   = "unknown"
	BuildDate  = "unknown"
	BinaryName = "queued"
)

// Config is the CLI's on-disk configuration.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Token   string `yaml:"token"`
		Timeout int    `yaml:"timeout"`
	} `yaml:"server"`
	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`
}

// Global flags, populated by parseGlobalFlags.
var (
	cfgFile    string
	serverAddr string
	apiToken   string
	outputFmt  string
	timeout    int
)

var (
	cfg    Config
	client *api.Client
)

// Execute runs the CLI: parse flags, load config, dispatch to a
// subcommand.
func Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return nil
	}

	args = parseGlobalFlags(args)
	loadConfig()
	initClient()

	if len(args) == 0 {
		printHelp()
		return nil
	}

	switch args[0] {
	case "help", "-h", "--help":
		printHelp()
	case "version", "-v", "--version":
		printVersion()
	case "config":
		return runConfig(args[1:])
	case "tui":
		return runTUI()
	case "auth":
		return runAuth(args[1:])
	case "status":
		return runStatus(args[1:])
	case "option-get":
		return runOptionGet(args[1:])
	case "option-set":
		return runOptionSet(args[1:])
	case "permission-add":
		return runPermissionAdd(args[1:])
	case "permission-remove":
		return runPermissionRemove(args[1:])
	case "plugin-add":
		return runPluginAdd(args[1:])
	case "plugin-remove":
		return runPluginRemove(args[1:])
	case "plugin-list":
		return runPluginList(args[1:])
	case "plugin-options":
		return runPluginOptions(args[1:])
	case "plugin-specification":
		return runPluginSpecification(args[1:])
	case "report":
		return runReport(args[1:])
	case "task-add":
		return runTaskAdd(args[1:])
	case "task-get":
		return runTaskGet(args[1:])
	case "task-list":
		return runTaskList(args[1:])
	case "task-set":
		return runTaskSet(args[1:])
	case "task-start":
		return runTaskStart(args[1:])
	case "task-stop":
		return runTaskStop(args[1:])
	case "user-add":
		return runUserAdd(args[1:])
	case "user-get":
		return runUserGet(args[1:])
	case "user-list":
		return runUserList(args[1:])
	case "user-set":
		return runUserSet(args[1:])
	default:
		return fmt.Errorf("unknown command: %s (see %s help)", args[0], BinaryName)
	}

	return nil
}

func parseGlobalFlags(args []string) []string {
	var remaining []string
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-s", "--server":
			if i+1 < len(args) {
				serverAddr = args[i+1]
				i += 2
			} else {
				i++
			}
		case "-t", "--token":
			if i+1 < len(args) {
				apiToken = args[i+1]
				i += 2
			} else {
				i++
			}
		case "-o", "--output":
			if i+1 < len(args) {
				outputFmt = args[i+1]
				i += 2
			} else {
				i++
			}
		case "-c", "--config":
			if i+1 < len(args) {
				cfgFile = args[i+1]
				i += 2
			} else {
				i++
			}
		case "--timeout":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%d", &timeout)
				i += 2
			} else {
				i++
			}
		case "-h", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--version":
			printVersion()
			os.Exit(0)
		default:
			remaining = append(remaining, args[i])
			i++
		}
	}
	return remaining
}

func loadConfig() {
	cfg.Server.Address = "http://localhost:8080"
	cfg.Server.Timeout = 30
	cfg.Output.Format = "table"

	if cfgFile == "" {
		home, _ := os.UserHomeDir()
		cfgFile = filepath.Join(home, ".config", "queued", "client.yml")
	}

	if data, err := os.ReadFile(cfgFile); err == nil {
		yaml.Unmarshal(data, &cfg)
	}

	if serverAddr != "" {
		cfg.Server.Address = serverAddr
	}
	if apiToken != "" {
		cfg.Server.Token = apiToken
	}
	if outputFmt != "" {
		cfg.Output.Format = outputFmt
	}
	if timeout > 0 {
		cfg.Server.Timeout = timeout
	}

	if env := os.Getenv("QUEUED_CLI_TOKEN"); env != "" && cfg.Server.Token == "" {
		cfg.Server.Token = env
	}
	if env := os.Getenv("QUEUED_CLI_SERVER"); env != "" && cfg.Server.Address == "" {
		cfg.Server.Address = env
	}
}

func initClient() {
	client = api.New(cfg.Server.Address, cfg.Server.Token, time.Duration(cfg.Server.Timeout)*time.Second)
	client.SetUserAgent(Version)
}

func printHelp() {
	fmt.Printf(`%s v%s - CLI client for the queued job queue daemon

Usage:
  %s [flags] <command> [args]

Commands:
  auth <user> <password>                 Authenticate and cache a token
  status                                  Show daemon build status
  task-add <cmd> [args...]               Submit a new task
  task-get <id>                          Show a task
  task-set <id> <field>=<value>...       Edit a pending task
  task-start <id>                        Force-start a task
  task-stop <id>                         Stop a live task
  task-list [--user-id n] [--from] [--to]  List tasks
  user-add <name> <password>             Create a user
  user-get <name>                        Show a user
  user-set <name> <field>=<value>...     Edit a user
  user-list [--last-logged] [--permission] List users
  option-get <key>                       Read a setting
  option-set <key> <value>               Write a setting
  permission-add <userID> <perm>         Grant a permission bit
  permission-remove <userID> <perm>      Revoke a permission bit
  plugin-add <name> <kind> [k=v...]      Load a plugin
  plugin-remove <name>                   Unload a plugin
  plugin-list                            List loaded plugins
  plugin-options <name>                  Show a plugin's options
  plugin-specification <name>            Show a plugin's name, version, description
  report --from <t> --to <t>             Performance report
  config                                 Manage CLI configuration
  tui                                    Launch interactive task monitor
  version                                 Show version information
  help                                    Show this help

Flags:
  -s, --server string    Server address (default: config or http://localhost:8080)
  -t, --token string     Bearer token
  -o, --output string    Output format: json, table (default: table)
  -c, --config string    Path to config file
      --timeout int      Request timeout in seconds (default: 30)
  -h, --help             Show help
  -v, --version          Show version

Permission bits: 1=superadmin 2=admin 4=job 8=reports
`, BinaryName, Version, BinaryName)
}

func printVersion() {
	fmt.Printf("%s v%s (%s) built %s\n", BinaryName, Version, CommitID, BuildDate)
}

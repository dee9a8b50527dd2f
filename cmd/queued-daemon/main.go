// SPDX-License-Identifier: MIT
// Grounded on main.go's manual-arg-parse + signal.Notify + graceful-
// shutdown shape, trimmed of the teacher's service-manager/update/
// maintenance/cluster concerns (none of which apply to this daemon)
// down to: parse a handful of flags, wire C1-C11, serve, shut down
// cleanly on SIGINT/SIGTERM/SIGHUP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/queued/queued/internal/config"
	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/httpapi"
	"github.com/queued/queued/internal/logging"
	"github.com/queued/queued/internal/metrics"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/plugins"
	"github.com/queued/queued/internal/reports"
	"github.com/queued/queued/internal/retention"
	"github.com/queued/queued/internal/scheduler"
	"github.com/queued/queued/internal/settings"
	"github.com/queued/queued/internal/store"
	"github.com/queued/queued/internal/tokens"
	"github.com/queued/queued/internal/users"
	"github.com/queued/queued/internal/version"
)

// Build info, set via -ldflags at build time.
var (
	Version   = "dev"
	CommitID  = "unknown"
	BuildDate = "unknown"
)

func init() {
	version.Version = Version
	version.CommitID = CommitID
	version.BuildTime = BuildDate
}

func main() {
	args := os.Args[1:]

	configPath := ""
	address := ""
	port := ""
	debug := false

	i := 0
	for i < len(args) {
		switch args[i] {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Println(version.Status())
			os.Exit(0)
		case "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--address":
			if i+1 < len(args) {
				address = args[i+1]
				i++
			}
		case "--port":
			if i+1 < len(args) {
				port = args[i+1]
				i++
			}
		case "--debug":
			debug = true
		}
		i++
	}

	if err := run(configPath, address, port, debug); err != nil {
		fmt.Fprintf(os.Stderr, "queued-daemon: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`queued-daemon - multi-user job queue daemon

Usage: queued-daemon [options]

Options:
  --help              Show this help message
  --version           Show version information
  --config <path>     Configuration file path
  --address <addr>    Listen address override
  --port <port>       Listen port override
  --debug             Tag every log entry with debug=true
`)
}

func run(configPath, addressFlag, portFlag string, debug bool) error {
	log := logging.New(os.Stdout, logging.FormatJSON)
	if debug {
		log = log.With("debug", true)
	}

	if configPath == "" {
		configPath = filepath.Join(config.DefaultConfigDir(), "queued.ini")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		Driver:   store.Driver(cfg.Database.Driver),
		Host:     cfg.Database.Hostname,
		Port:     cfg.Database.Port,
		Path:     cfg.Database.Path,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	set := settings.New()
	if rows, err := st.Get(ctx, store.TableSettings, nil); err == nil {
		set.BulkLoad(rows)
	}

	tok := tokens.New()
	if rows, err := st.Get(ctx, store.TableTokens, nil); err == nil {
		tok.LoadAll(tokens.RowsToTokens(rows))
	}
	tok.OnRegister(func(t model.Token) {
		if st.Add(ctx, store.TableTokens, tokens.TokenToRow(t)) == -1 {
			log.Warn("persisting token failed", map[string]any{"user": t.UserName})
		}
	})

	usr := users.New(tok, cfg.Administrator.Salt)
	adminHash := users.HashPassword(cfg.Administrator.Password, cfg.Administrator.Salt)
	if err := st.BootstrapAdmin(ctx, cfg.Administrator.Username, adminHash, int64(model.PermissionSuperAdmin)); err != nil {
		return fmt.Errorf("bootstrapping administrator: %w", err)
	}
	if rows, err := st.Get(ctx, store.TableUsers, nil); err == nil {
		for _, r := range rows {
			usr.Add(rowToUser(r))
		}
	}
	usr.OnLogin(func(userID int64, at time.Time) {
		if !st.Modify(ctx, store.TableUsers, userID, store.Row{"last_login": store.FormatTime(at)}) {
			log.Warn("persisting last_login failed", map[string]any{"user": userID})
		}
	})

	sched := scheduler.New(st, set, log)
	pluginMgr := plugins.New(usr, cfg.Administrator.Username, log)
	rep := reports.New(st)
	facade := core.New(st, set, tok, usr, sched, pluginMgr, rep)

	taskRows, err := st.Get(ctx, store.TableTasks, nil)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	sched.Start(ctx, taskRows)
	defer sched.Stop()

	retentionTimer := retention.New(st, set, log)
	if err := retentionTimer.Start(ctx); err != nil {
		return fmt.Errorf("starting retention timer: %w", err)
	}
	defer retentionTimer.Stop()

	address = set.Get("ServerAddress")
	if addressFlag != "" {
		address = addressFlag
	}
	port = set.Get("ServerPort")
	if portFlag != "" {
		port = portFlag
	}
	listenAddr := fmt.Sprintf("%s:%s", address, port)

	router := httpapi.NewRouter(facade, metrics.Handler())
	srv := &http.Server{Addr: listenAddr, Handler: router}

	go func() {
		log.Info("listening", map[string]any{"address": listenAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-quit
	log.Info("shutting down", map[string]any{"signal": sig.String()})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Info("stopped", nil)
	return nil
}

func rowToUser(r store.Row) *model.User {
	u := &model.User{}
	if v, ok := r["_id"].(int64); ok {
		u.ID = v
	}
	if v, ok := r["name"].(string); ok {
		u.Name = v
	}
	if v, ok := r["email"].(string); ok {
		u.Email = v
	}
	if v, ok := r["password_hash"].(string); ok {
		u.PasswordHash = v
	}
	if v, ok := r["permissions"].(int64); ok {
		u.Permissions = model.Permission(v)
	}
	if v, ok := r["priority"].(int64); ok {
		u.Priority = v
	}
	if v, ok := r["limits"].(string); ok {
		u.Limits = model.DecodeLimits(v)
	}
	if v, ok := r["last_login"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			u.LastLogin = &ts
		}
	}
	return u
}

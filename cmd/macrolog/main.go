package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/macrolog/internal/config"
	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/lookup"
	"github.com/hpungsan/macrolog/internal/mcp"
	"github.com/hpungsan/macrolog/internal/metrics"
	"github.com/hpungsan/macrolog/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "edit": true, "remove": true, "clear": true,
	"view": true, "days": true, "report": true, "goals": true,
	"scale": true, "search": true, "barcode": true,
	"export": true, "import": true, "prune": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  macrolog: daily calorie and macro log

  Usage: macrolog <command> [options]
         macrolog --help

  MCP server mode requires piped input.`)
}

// buildEnv loads config from baseDir and opens the configured store.
// The returned func releases the store.
func buildEnv(ctx context.Context, baseDir string) (ops.Env, func(), error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return ops.Env{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return ops.Env{}, nil, err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	m := metrics.New()

	store, err := kv.Open(ctx, cfg, baseDir)
	if err != nil {
		return ops.Env{}, nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}

	env := ops.Env{
		Store:   store,
		Config:  cfg,
		BaseDir: baseDir,
		Nav:     day.NewNavigator(nil, loc),
		Log:     log,
		Metrics: m,
	}
	if cfg.LookupURL != "" {
		env.Finder = lookup.NewClient(cfg.LookupURL, cfg.LookupAPIKey, cfg.LookupTimeout(), log, m)
	}
	return env, func() { _ = store.Close() }, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no store
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".macrolog")

	env, closeStore, err := buildEnv(context.Background(), baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	if isCLIMode() {
		app := newCLIApp(&env)
		if err := app.Run(os.Args); err != nil {
			closeStore()
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		closeStore()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'macrolog --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(env, Version); err != nil {
		closeStore()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/config"
	"github.com/tftdiet/tft/internal/db"
	"github.com/tftdiet/tft/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// EnvHome overrides the base directory (~/.tft).
const EnvHome = "TFT_HOME"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"foods": true, "draft": true, "meals": true,
	"profile": true, "stats": true, "report": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion(args) || (len(arg) > 1 && arg[0] == '-')
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70"))
	bannerMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	bannerBox   = lipgloss.NewStyle().Padding(1, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("70"))
)

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	body := lipgloss.JoinVertical(lipgloss.Left,
		bannerTitle.Render("tft")+" "+bannerMuted.Render(Version),
		"Meal and calorie tracker",
		"",
		"Usage: tft <command> [options]",
		"       tft serve            web UI on http://127.0.0.1:8420",
		"       tft --help",
		"",
		bannerMuted.Render("MCP server mode requires piped input."),
	)
	fmt.Println(bannerBox.Render(body))
}

// baseDir returns $TFT_HOME or ~/.tft.
func baseDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tft"), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal(os.Stdin) {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion(os.Args) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tft --help' for usage.\n")
		os.Exit(1)
	}

	dir, err := baseDir()
	if err != nil {
		fatal("%v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = dir
	}
	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	database, err := db.Init(dir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	a, err := app.New(cfg, database, app.WithLogger(logger))
	if err != nil {
		database.Close()
		fatal("%v", err)
	}
	a.Init(context.Background())

	// CLI mode: known subcommand
	if isCLIMode(os.Args) {
		if err := newCLIApp(a).Run(os.Args); err != nil {
			database.Close()
			fatal("%v", err)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(a, Version); err != nil {
		database.Close()
		fatal("%v", err)
	}
}

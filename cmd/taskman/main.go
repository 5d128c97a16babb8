package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dori/taskman/internal/app"
	"github.com/dori/taskman/internal/config"
	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/ui"
)

var (
	version = "0.1.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.Usage = func() {
		printHelp()
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	cfg, err := config.Load(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile, cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	rest := fs.Args()
	if len(rest) == 0 {
		if err := runTUI(cfg); err != nil {
			logger.Error("tui exited", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	switch rest[0] {
	case "version":
		fmt.Printf("%s v%s\n", config.AppName, version)
		return 0
	case "help", "-h", "--help":
		printHelp()
		return 0
	}

	if err := runCommand(cfg, rest); err != nil {
		logger.Warn("command failed", zap.String("command", rest[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func printHelp() {
	help := `taskman - a personal task manager for the terminal

Usage:
  taskman [flags]                      Start the TUI
  taskman add <task>                   Add a task
  taskman list [--sort date|status] [--search text]
                                       Print tasks
  taskman done <id>                    Toggle a task done/pending
  taskman rm [--yes] <id>              Delete a task
  taskman clear [--yes]                Delete every task
  taskman register <username>          Create an account and sign in
  taskman login <username>             Sign in
  taskman logout                       Sign out
  taskman whoami                       Show the signed in user
  taskman doctor                       Check the stored data decodes
  taskman version                      Show version
  taskman help                         Show this help

Ids may be given in full, as a prefix, or as the short id printed by list.
Passwords are read from $TASKMAN_PASSWORD or prompted for.

Keybindings (task list):
  ↑/↓ or j/k    Move cursor          a       Add task
  tab/space     Toggle done          enter   Task details
  /             Search               d / D   Delete / delete all
  s / S         Sort by date/status  esc     Back
  ctrl+t        Cycle theme          q       Quit`

	fmt.Println(help)
}

// runCommand runs a one-shot subcommand. It does not take the TUI lock.
func runCommand(cfg *config.Config, args []string) error {
	application, err := app.NewUnlocked(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	c := newCLI(application, os.Stdin, os.Stdout, os.Getenv)
	return c.run(context.Background(), args)
}

func runTUI(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	model := ui.NewRootModel(application)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}

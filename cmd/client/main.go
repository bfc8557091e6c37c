package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"GophDrive/internal/cli/commands"
	"GophDrive/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	flag.Usage = usage
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion(cfg)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Dispatch(ctx, cfg, flag.Args())
	cancel()
	os.Exit(code)
}

// usage печатает справку по командам, затем глобальные флаги.
func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprint(out, commands.FormatGlobalUsage())
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func printVersion(cfg *config.Config) {
	fmt.Printf("gdcli %s (built %s)\nServer: %s\nToken file: %s\n", version, buildDate, cfg.ServerURL, cfg.TokenFile)
}

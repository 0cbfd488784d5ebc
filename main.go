package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"workbench/internal/app"
	"workbench/internal/config"
	"workbench/internal/logging"
)

const usage = `usage: workbench [flags] [command]

commands:
  serve    run the web dashboard (default)
  mcp      serve the SQL and notes tools over MCP on stdin/stdout
  backup   write one snapshot of the data documents and exit

flags:
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.PathEnvVar, *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := run(cfg, flag.Arg(0)); err != nil {
		logging.Error().Err(err).Msg("workbench exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, command string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "", "serve":
		return a.Serve(ctx)
	case "mcp":
		return a.ServeMCP()
	case "backup":
		dir, err := a.Backup(ctx)
		if err != nil {
			return err
		}
		fmt.Println(dir)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

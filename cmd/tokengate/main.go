// tokengate serves login, refresh, logout and token checks over HTTP.
//
// Configuration is read from a YAML file (--config) with TOKENGATE_*
// environment overrides. --dev runs without external services: an
// in-process Redis stands in for the real one and missing secrets are
// generated at startup.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/MrEthical07/tokengate/internal/config"
	"github.com/MrEthical07/tokengate/internal/logging"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath  string
		dev         bool
		addr        string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("tokengate", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	flagSet.BoolVar(&dev, "dev", false, "run with in-process Redis and generated secrets")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("tokengate", version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("dev") {
		cfg.Dev = dev
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	cfg.ApplyDevDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, version)
	if cfg.Dev {
		logger.Warn("development mode: secrets and in-process redis do not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

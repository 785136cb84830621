// Command adsym inspects and edits PLC variables by symbolic path.
//
// The symbol tables come from a YAML fixture that is served by a simulated
// device, from a saved snapshot (offline, no reads or writes), or from the
// bundled house project when neither is given.
//
// Usage:
//
//	adsym [flags] <command> [args]
//
// Commands:
//
//	shell                  interactive prompt
//	serve                  HTTP API (see -config and -addr)
//	snapshot <file>        save the symbol tables for offline use
//	init-config <file>     write an example configuration file
//	list, info, resolve, get, set, raw, verify, persistent, bytype, stats
//	                       run one shell command and exit
//
// Examples:
//
//	adsym persistent
//	adsym -fixture plant.yaml get MAIN.kitchen.fridge
//	adsym -snapshot plc.snap verify garden.plants[3] 16#7FFF
//	adsym -config adsym.yaml serve
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mrpasztoradam/goadsym"
	"github.com/mrpasztoradam/goadsym/middleware"
)

type options struct {
	config    string
	fixture   string
	snapshot  string
	addr      string
	logLevel  string
	logFormat string
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "Configuration file path")
	flag.StringVar(&opts.fixture, "fixture", "", "YAML schema served by a simulated device")
	flag.StringVar(&opts.snapshot, "snapshot", "", "Snapshot file for an offline client")
	flag.StringVar(&opts.addr, "addr", "", "Listen address for serve (host:port)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: adsym [flags] <command> [args]\n\nCommands:\n")
		fmt.Fprint(flag.CommandLine.Output(), commandHelp)
		fmt.Fprintf(flag.CommandLine.Output(), "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "adsym:", err)
		os.Exit(1)
	}
}

func run(opts options, args []string) error {
	command, rest := args[0], args[1:]

	if command == "init-config" {
		if len(rest) != 1 {
			return fmt.Errorf("usage: init-config <file>")
		}
		return middleware.SaveExample(rest[0])
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	level, err := goadsym.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := goadsym.NewLogger(os.Stderr, cfg.Logging.Format, level)
	metrics := goadsym.NewInMemoryMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := middleware.OpenClient(ctx, cfg, goadsym.WithLogger(logger), goadsym.WithMetrics(metrics))
	if err != nil {
		return err
	}

	switch command {
	case "serve":
		return serve(ctx, cfg, client, logger)
	case "shell":
		return runShell(ctx, newExecutor(client, metrics))
	case "snapshot":
		if len(rest) != 1 {
			return fmt.Errorf("usage: snapshot <file>")
		}
		if err := client.Snapshot().Save(rest[0]); err != nil {
			return err
		}
		logger.Info("snapshot saved", "file", rest[0], "symbols", len(client.ListSymbols()))
		return nil
	default:
		line := strings.TrimSpace(command + " " + strings.Join(rest, " "))
		ok, _ := newExecutor(client, metrics).exec(ctx, line, os.Stdout)
		if !ok {
			return fmt.Errorf("%s failed", command)
		}
		return nil
	}
}

// loadConfig reads the configuration file, if any, and applies the flags
// on top of it.
func loadConfig(opts options) (*middleware.Config, error) {
	cfg := middleware.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = middleware.LoadConfig(opts.config); err != nil {
			return nil, err
		}
	}

	if opts.fixture != "" {
		cfg.Device.Fixture, cfg.Device.Snapshot = opts.fixture, ""
		cfg.Device.Source = opts.fixture
	}
	if opts.snapshot != "" {
		cfg.Device.Snapshot, cfg.Device.Fixture = opts.snapshot, ""
		cfg.Device.Source = opts.snapshot
	}
	if opts.addr != "" {
		host, port, err := splitAddr(opts.addr)
		if err != nil {
			return nil, err
		}
		cfg.Server.Host, cfg.Server.Port = host, port
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitAddr(addr string) (string, int, error) {
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, port, nil
}

func serve(ctx context.Context, cfg *middleware.Config, client *goadsym.Client, logger goadsym.Logger) error {
	server, err := middleware.NewServer(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/featureflags/internal/application"
	"github.com/eugenenazirov/featureflags/internal/config"
	"github.com/eugenenazirov/featureflags/internal/flags"
	"github.com/eugenenazirov/featureflags/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("flagd", "Feature flags - serves boolean flags from the application metadata manifest")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	manifestPath := kingpinApp.Flag("manifest", "Path to a YAML or JSON metadata manifest (defaults to the bundled one)").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	serveCmd := kingpinApp.Command("serve", "Serve flags over HTTP").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	getCmd := kingpinApp.Command("get", "Print the value of a single flag")
	getKey := getCmd.Arg("key", "Flag key").Required().String()
	getGroup := getCmd.Flag("group", "Nested group to search before the top level").String()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *manifestPath != "" {
		overrides.ManifestPath = manifestPath
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *port != "" {
		overrides.Port = port
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case getCmd.FullCommand():
		reader, err := application.NewReader(cfg, logger)
		if err != nil {
			logger.Fatal("failed to load flags", zap.Error(err))
		}
		printFlag(os.Stdout, reader, *getKey, getGroup)
	default:
		serve(cfg, logger)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// printFlag writes "true" or "false" for key. An empty group searches the top level only.
func printFlag(w io.Writer, reader *flags.Reader, key string, group *string) {
	var opts []flags.LookupOption
	if group != nil && *group != "" {
		opts = append(opts, flags.InGroup(*group))
	}
	_, _ = fmt.Fprintln(w, strconv.FormatBool(reader.Boolean(key, opts...)))
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/fir-settings/internal/application"
	"github.com/eugenenazirov/fir-settings/internal/config"
	"github.com/eugenenazirov/fir-settings/internal/logging"
	"github.com/eugenenazirov/fir-settings/internal/settings"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("fir-settings", "FIR settings assembler - builds and serves the web application's configuration")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	baseDir := kingpinApp.Flag("base-dir", "Project base directory").String()
	manifest := kingpinApp.Flag("manifest", "Path to the installed applications manifest").String()
	fragmentsDir := kingpinApp.Flag("fragments-dir", "Directory holding per-application settings fragments").String()
	capabilities := kingpinApp.Flag("capability", "Available optional package (repeatable)").Strings()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	serveCmd := kingpinApp.Command("serve", "Serve the assembled settings over HTTP").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	dumpCmd := kingpinApp.Command("dump", "Print the assembled settings and exit")
	format := dumpCmd.Flag("format", "Output format").Default("json").Enum("json", "yaml")
	showSecrets := dumpCmd.Flag("show-secrets", "Print AAD secrets instead of masking them").Bool()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:   *configFile,
		Capabilities: *capabilities,
	}

	if *port != "" {
		overrides.Port = port
	}
	if *baseDir != "" {
		overrides.BaseDir = baseDir
	}
	if *manifest != "" {
		overrides.Manifest = manifest
	}
	if *fragmentsDir != "" {
		overrides.FragmentsDir = fragmentsDir
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
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

	if command == dumpCmd.FullCommand() {
		s, _, err := application.LoadSettings(cfg, logger)
		if err != nil {
			logger.Fatal("failed to load settings", zap.Error(err))
		}
		if err := dump(os.Stdout, s, *format, *showSecrets); err != nil {
			logger.Fatal("failed to dump settings", zap.Error(err))
		}
		return
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// dump writes the settings mapping to w as JSON or YAML. Secrets are masked
// unless showSecrets is set.
func dump(w io.Writer, s *settings.Settings, format string, showSecrets bool) error {
	mapping := s.Redacted()
	if showSecrets {
		mapping = s.Mapping()
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "", "json":
		data, err = mapping.MarshalJSON()
		if err == nil {
			data = append(data, '\n')
		}
	case "yaml":
		data, err = yaml.Marshal(mapping)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = w.Write(data)
	return err
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

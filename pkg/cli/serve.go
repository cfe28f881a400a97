package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devmock/devmock/pkg/config"
	"github.com/devmock/devmock/pkg/engine"
	"github.com/devmock/devmock/pkg/httputil"
	"github.com/devmock/devmock/pkg/logging"
)

// AdminPrefix is where the management API is mounted on the serve host.
// Requests under it never reach the mock matcher.
const AdminPrefix = "/__devmock/"

const shutdownTimeout = 10 * time.Second

var (
	serveConfigFile string
	serveDir        string
	servePrefix     string
	servePort       int
	serveDelay      int
	serveWatch      bool
	serveNoWatch    bool
	serveLogLevel   string
	serveLogFormat  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server in the foreground",
	Long: `Start a standalone HTTP server that answers matched requests with mock
responses and falls back to a JSON 404 for everything else. The
management API is mounted under ` + AdminPrefix + `.

Flags override values from the configuration file. Without --config,
devmock looks for devmock.yaml, devmock.yml or devmock.json in the
current directory and falls back to defaults when none exists.`,
	Example: `  # Serve ./mocks on the default port
  devmock serve

  # Custom mock root and port
  devmock serve --dir ./fixtures --port 3000

  # Intercept every path, not just /api
  devmock serve --prefix /`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveServeConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigFile, "config", "c", "", "Path to devmock.yaml/.json configuration file")
	serveCmd.Flags().StringVarP(&serveDir, "dir", "d", "", "Mock root directory (default ./mocks)")
	serveCmd.Flags().StringVar(&servePrefix, "prefix", "", "Only intercept paths under this prefix, / for all (default /api)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default 4280)")
	serveCmd.Flags().IntVar(&serveDelay, "delay", 0, "Default response delay in milliseconds")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload route files on change")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable file watching")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "", "Log format: text or json")
}

// configFileNames are probed in order when --config is not given.
var configFileNames = []string{"devmock.yaml", "devmock.yml", "devmock.json"}

func resolveServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfigFile(serveConfigFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if serveDir != "" {
		cfg.Dir = serveDir
	}
	if servePrefix != "" {
		cfg.Prefix = servePrefix
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if flags.Changed("delay") {
		cfg.DefaultDelay = serveDelay
	}
	switch {
	case serveNoWatch:
		cfg.Watch = boolPtr(false)
	case flags.Changed("watch"):
		cfg.Watch = boolPtr(serveWatch)
	}
	if serveLogLevel != "" {
		cfg.LogLevel = serveLogLevel
	}
	if serveLogFormat != "" {
		cfg.LogFormat = serveLogFormat
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	for _, name := range configFileNames {
		cfg, err := config.Load(name)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, config.ErrFileNotFound) {
			return nil, err
		}
	}
	return config.Default(), nil
}

func runServe(cfg *config.Config) error {
	logger := logging.FromStrings(cfg.LogLevel, cfg.LogFormat)

	eng := engine.New(cfg)
	eng.SetLogger(logger)
	if err := eng.Start(context.Background()); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           serveHandler(eng),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("devmock listening",
			"addr", srv.Addr,
			"dir", cfg.Dir,
			"prefix", cfg.Prefix,
			"admin", AdminPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serverErr
}

// serveHandler routes admin traffic to the management API and everything
// else through the mock matcher, answering unmatched requests with a
// JSON 404 so callers never mistake the mock server for a real backend.
func serveHandler(eng *engine.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(AdminPrefix, http.StripPrefix(strings.TrimSuffix(AdminPrefix, "/"), eng.AdminHandler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if eng.Handle(w, r) {
			return
		}
		httputil.WriteNotFound(w, "no_mock", fmt.Sprintf("no mock matched %s %s", r.Method, r.URL.Path))
	})
	return mux
}

func boolPtr(b bool) *bool { return &b }

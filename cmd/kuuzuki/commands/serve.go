package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuzuki-ai/kuuzuki/internal/analytics"
	"github.com/kuuzuki-ai/kuuzuki/internal/compat"
	"github.com/kuuzuki-ai/kuuzuki/internal/config"
	"github.com/kuuzuki-ai/kuuzuki/internal/intercept"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
	"github.com/kuuzuki-ai/kuuzuki/internal/permission"
	"github.com/kuuzuki-ai/kuuzuki/internal/recovery"
	"github.com/kuuzuki-ai/kuuzuki/internal/server"
	"github.com/kuuzuki-ai/kuuzuki/internal/tool"
)

var (
	servePort     int
	serveHostname string
	serveDir      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kuuzuki governance server",
	Long: `Start kuuzuki as a headless server exposing the governance API:
tool interception and execution, permission checks, security validation,
alerts, and event streaming.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 4096, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "127.0.0.1", "Hostname to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	logging.Info().Str("version", Version).Str("workDir", workDir).Msg("starting kuuzuki server")

	if err := config.GetPaths().EnsurePaths(); err != nil {
		return err
	}

	// Config with live reload.
	watcher, err := config.NewWatcher(workDir)
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	appConfig := watcher.Config()
	if appConfig.LogLevel != "" && logLevel == "" {
		cfg := logging.DefaultConfig()
		cfg.Level = logging.ParseLevel(appConfig.LogLevel)
		cfg.Pretty = prettyLog
		logging.Init(cfg)
	}

	// Governance components: exactly one of each per process.
	store := analytics.NewStore()
	registry := tool.NewRegistry()
	resolver := compat.NewResolver(compat.DefaultMatrix(), store)
	interceptor := intercept.NewInterceptor(resolver, registry)
	manager := recovery.NewManager(recovery.NewCircuitBreaker(), store)

	// Pre-resolve tool ids agents are known to request while missing.
	if len(appConfig.EagerTools) > 0 {
		interceptor.RegisterEager(appConfig.EagerTools)
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Host = serveHostname
	serverConfig.Port = servePort
	if appConfig.Server != nil {
		if appConfig.Server.Host != "" && !cmd.Flags().Changed("hostname") {
			serverConfig.Host = appConfig.Server.Host
		}
		if appConfig.Server.Port != 0 && !cmd.Flags().Changed("port") {
			serverConfig.Port = appConfig.Server.Port
		}
	}

	srv := server.New(serverConfig, server.Deps{
		AppConfig:      appConfig,
		Engine:         permission.NewEngine(store),
		Checker:        permission.NewChecker(),
		Interceptor:    interceptor,
		Registry:       registry,
		Analytics:      store,
		Recovery:       manager,
		EnvPermissions: config.EnvPermissions,
		ConfigSource:   watcher.Config,
	})

	go func() {
		logging.Info().Str("host", serverConfig.Host).Int("port", serverConfig.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}

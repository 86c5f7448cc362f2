package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/config"
	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/council"
	"github.com/ascendlabs/ascendancy/internal/credentials"
	"github.com/ascendlabs/ascendancy/internal/gateway"
	"github.com/ascendlabs/ascendancy/internal/orchestrator"
	"github.com/ascendlabs/ascendancy/internal/storage"
	"github.com/ascendlabs/ascendancy/internal/tools"
	"github.com/ascendlabs/ascendancy/web/handlers"
)

var (
	cfgPath   string
	envPath   string
	debug     bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ascendancy",
	Short: "Multi-model AI council server",
	Long: `ascendancy is a web service that proxies chat completions across
model providers and can convene a council of models to debate a topic
before answering.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.ascendancy/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "Env file path (default: .env in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Server port (overrides config)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configExampleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func initLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := config.LoadEnv(envPath)

		port := appConfig.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		store, err := openStore(appConfig, &env)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		sessionSecret := env.SessionSecret
		if sessionSecret == "" {
			sessionSecret = core.GenerateID() + core.GenerateID()
			slog.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
		}
		sessions, err := auth.NewManager(sessionSecret, appConfig.Server.SessionTTL)
		if err != nil {
			return fmt.Errorf("failed to initialize sessions: %w", err)
		}

		var identity auth.Identity
		if appConfig.Appwrite.Project != "" {
			identity = auth.NewAppwriteIdentity(appConfig.Appwrite.Endpoint, appConfig.Appwrite.Project)
		}

		exchanger := credentials.NewGoogleExchanger(env.GoogleAntigravitySecret, env.GoogleCLISecret)
		resolver := credentials.NewResolver(&env, exchanger)

		gw := gateway.NewHTTPClient(appConfig.Upstream.Timeout, appConfig.Upstream.MaxRetries)
		router := tools.NewRouter(newSearchers(&env), appConfig.Tools.SearchProvider, store)
		loader := council.NewLoader(store)
		engine := orchestrator.NewEngine(gw, resolver, router, loader, store, appConfig.Debate.AntiHallucination)

		var limiter *handlers.RateLimiter
		if appConfig.Server.RateLimit > 0 {
			limiter = handlers.NewRateLimiter(appConfig.Server.RateLimit, appConfig.Server.RateWindow)
		}

		h := handlers.New(engine, store, sessions, identity, loader, limiter)

		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      h.Routes(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute,
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			slog.Info("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()

		slog.Info("Starting server", "port", port, "storage", appConfig.Storage.Driver)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func openStore(cfg *config.Config, env *config.EnvSecrets) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "appwrite":
		store := storage.NewAppwriteStore(cfg.Appwrite.Endpoint, cfg.Appwrite.Project, cfg.Appwrite.Database, env.AppwriteAPIKey)
		return store, store.Initialize()
	default:
		path := cfg.Storage.Path
		if path == "" {
			path = config.DefaultDBPath()
		}
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, store.Initialize()
	}
}

func newSearchers(env *config.EnvSecrets) map[string]tools.Searcher {
	searchers := map[string]tools.Searcher{}
	if env.SerperAPIKey != "" {
		searchers["serper"] = tools.NewSerperSearcher(env.SerperAPIKey)
	}
	if env.TavilyAPIKey != "" {
		searchers["tavily"] = tools.NewTavilySearcher(env.TavilyAPIKey)
	}
	if len(searchers) == 0 {
		slog.Warn("No search API keys are set, web search disabled")
	}
	return searchers
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())
		fmt.Println("Current settings:")
		fmt.Printf("  Port:            %d\n", appConfig.Server.Port)
		fmt.Printf("  Session TTL:     %s\n", appConfig.Server.SessionTTL)
		fmt.Printf("  Storage driver:  %s\n", appConfig.Storage.Driver)
		fmt.Printf("  Search provider: %s\n", appConfig.Tools.SearchProvider)
		fmt.Printf("  Upstream timeout:%s\n", appConfig.Upstream.Timeout)
		return nil
	},
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.GenerateExample())
	},
}

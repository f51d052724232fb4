package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/cryptotherapist/internal/configs"
)

var (
	version = "dev"

	flagconf   string
	flagFresh  bool
	flagHandle string

	log = newLogger(os.Stdout, "debug")
)

const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:           "cryptotherapist",
	Short:         "AI crypto therapist, satire news and the Crypto Chaos Index",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var satireCmd = &cobra.Command{
	Use:   "satire",
	Short: "Print the current batch of satire cards as JSON",
	RunE:  runSatire,
}

var figuresCmd = &cobra.Command{
	Use:   "figures",
	Short: "Print the Crypto Chaos Index for the curated figures, or one --handle",
	RunE:  runFigures,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cryptotherapist %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "", "config path, eg: --conf config.yaml")
	satireCmd.Flags().BoolVar(&flagFresh, "fresh", false, "bypass the news cache")
	figuresCmd.Flags().StringVar(&flagHandle, "handle", "", "analyze a single twitter handle")

	rootCmd.AddCommand(serveCmd, satireCmd, figuresCmd, versionCmd)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     l,
	}))
}

// loadConfig reads --conf, overlays the environment and replaces the package logger.
func loadConfig() (*configs.Config, error) {
	config, err := configs.Load(flagconf)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log = newLogger(os.Stdout, config.LogLevel)
	log.Debug("loaded config", "path", flagconf, "driver", config.Database.Driver, "addr", config.Server.Addr)
	return config, nil
}

func setup(ctx context.Context) (*App, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, config, log)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("failed to close storage", "err", err)
		}
	}()

	server := app.server(log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func runSatire(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	return printJSON(cmd.OutOrStdout(), app.satirist.Cards(cmd.Context(), flagFresh))
}

func runFigures(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if flagHandle != "" {
		analysis, err := app.chaos.AnalyzeHandle(cmd.Context(), flagHandle)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), analysis)
	}
	return printJSON(cmd.OutOrStdout(), app.chaos.AnalyzeFigures(cmd.Context()))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

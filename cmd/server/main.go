package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"glowcheck/internal/analysis"
	"glowcheck/internal/config"
	"glowcheck/internal/httpapi"
	"glowcheck/internal/llm"
	"glowcheck/internal/logging"
	"glowcheck/internal/service"
	"glowcheck/internal/state"
	"glowcheck/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := newServeCmd(&configPath)
	rootCmd := &cobra.Command{
		Use:           "glowcheck",
		Short:         "Glow Check backend: beauty and outfit analysis with persisted progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default $GLOWCHECK_CONFIG)")
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(
		serve,
		newAnalyzeCmd(&configPath),
		newStateCmd(&configPath),
	)
	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(addr) != "" {
				host, port := parseListenAddr(addr)
				cfg.HTTP.Host = host
				if port > 0 {
					cfg.HTTP.Port = port
				}
			}
			a, err := newApp(cfg, cfg.Analysis.AllowLocalFiles)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, e.g. 0.0.0.0:8080 or :9090")
	return cmd
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var (
		image string
		event string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis against the local state and print JSON",
	}
	cmd.PersistentFlags().StringVar(&image, "image", "", "image path, file:// URI or http(s) URL")
	_ = cmd.MarkPersistentFlagRequired("image")

	beauty := &cobra.Command{
		Use:   "beauty",
		Short: "Analyze a face photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(a *app) error {
				resp, err := a.svc.AnalyzeBeauty(cmd.Context(), service.BeautyRequest{ImageURL: image})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	outfit := &cobra.Command{
		Use:   "outfit",
		Short: "Analyze an outfit photo for an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(a *app) error {
				resp, err := a.svc.AnalyzeOutfit(cmd.Context(), service.OutfitRequest{ImageURL: image, Event: event})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	outfit.Flags().StringVar(&event, "event", "", "event the outfit is for (default Casual)")

	cmd.AddCommand(beauty, outfit)
	return cmd
}

func newStateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the persisted app state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.state.Snapshot())
			})
		},
	})
	return cmd
}

// withApp builds a CLI-scoped app. Local image paths are always allowed
// from the command line.
func withApp(configPath string, fn func(a *app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	backend store.Store
	state   *state.Store
	svc     *service.Service
}

func newApp(cfg config.Config, allowLocalFiles bool) (*app, error) {
	logger := logging.New(cfg.Logging)

	dataFile := cfg.Store.Path
	if strings.TrimSpace(dataFile) == "" {
		dataFile = store.DefaultPath(cfg.Store.Engine)
	}
	backend, err := store.NewByEngine(cfg.Store.Engine, dataFile)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, backend: backend}
	a.state, err = state.New(backend, state.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	client, err := newLLMClient(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	acq := analysis.NewAcquirer(
		analysis.NewEncoder(client, allowLocalFiles),
		analysis.WithAnnotator(client),
		analysis.WithGenerator(client),
		analysis.WithLogger(logger),
	)
	a.svc = service.New(a.state, acq,
		service.WithUploader(client),
		service.WithLogger(logger),
		service.WithMaxConcurrent(cfg.Analysis.MaxConcurrent),
	)
	logger.Info("store ready", "engine", cfg.Store.Engine, "path", dataFile)
	return a, nil
}

func newLLMClient(cfg config.Config, logger *slog.Logger) (*llm.Client, error) {
	llmCfg := llm.Config{
		VisionURL:       cfg.Vision.URL,
		VisionAPIKey:    cfg.Vision.APIKey,
		VisionTimeout:   cfg.Vision.Timeout(),
		CompletionURL:   cfg.LLM.URL,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.LLM.Timeout(),
		COSSecretID:     cfg.COS.SecretID,
		COSSecretKey:    cfg.COS.SecretKey,
		COSRegion:       cfg.COS.Region,
		COSBucketName:   cfg.COS.BucketName,
		COSPublicDomain: cfg.COS.PublicDomain,
	}
	logger.Info("analysis services configured",
		"vision_url", llmCfg.VisionURL,
		"vision_key_meta", safeKeyMeta(llmCfg.VisionAPIKey),
		"completion_url", llmCfg.CompletionURL,
		"completion_key_meta", safeKeyMeta(llmCfg.APIKey),
		"timeout", llmCfg.Timeout.String(),
	)
	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("init analysis client: %w", err)
	}
	if !client.CanUpload() {
		logger.Info("object storage not configured, photos will not be uploaded")
	}
	return client, nil
}

func (a *app) serve(ctx context.Context) error {
	router := httpapi.NewRouter(httpapi.NewHandler(a.svc, a.logger))
	server := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("glowcheck backend listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *app) Close() {
	if closer, ok := a.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("store close failed", "error", err)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseListenAddr(addr string) (string, int) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", 0
	}
	if strings.HasPrefix(addr, ":") {
		return "", parsePort(strings.TrimPrefix(addr, ":"))
	}
	if host, port, err := net.SplitHostPort(addr); err == nil {
		return host, parsePort(port)
	}
	if portOnly := parsePort(addr); portOnly > 0 {
		return "", portOnly
	}
	return addr, 0
}

func parsePort(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 || value > 65535 {
		return 0
	}
	return value
}

func safeKeyMeta(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "empty=true"
	}
	lower := strings.ToLower(trimmed)
	hasQuotes := (strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"")) ||
		(strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'"))
	return fmt.Sprintf(
		"empty=false,len=%d,has_bearer_prefix=%t,has_quotes=%t,has_whitespace=%t",
		len(trimmed),
		strings.HasPrefix(lower, "bearer "),
		hasQuotes,
		strings.Contains(trimmed, " "),
	)
}

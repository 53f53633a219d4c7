// focuswatch periodically screenshots the desktop, asks a vision model whether
// social media is on screen, and nags the user when it is.
//
// Usage:
//
//	focuswatch [--interval=30] [--model_name=llava:7b] [--buffer_size=5] [--config=focuswatch.yaml]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/focuswatch/internal/config"
	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/inference"
	"github.com/GriffinCanCode/focuswatch/internal/notify"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator"
	"github.com/GriffinCanCode/focuswatch/internal/screen"
	"github.com/GriffinCanCode/focuswatch/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

// options holds the raw flag values; only flags the user set override config.
type options struct {
	interval         int
	modelName        string
	prompt           string
	temperature      float64
	bufferSize       int
	configPath       string
	backend          string
	captureDir       string
	statusAddr       string
	inferenceTimeout int
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focuswatch",
		Short: "Nag when social media shows up on screen",
		Long: "focuswatch takes a screenshot every interval, asks a local vision model whether\n" +
			"social media is visible, and raises a desktop notification when the answer is yes.",
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.interval, "interval", int(config.DefaultInterval/time.Second), "Seconds between screenshots")
	f.StringVar(&opts.modelName, "model_name", config.DefaultModelName, "Vision model to query")
	f.StringVar(&opts.prompt, "prompt", config.DefaultPrompt, "Question sent with every screenshot")
	f.Float64Var(&opts.temperature, "temperature", config.DefaultTemperature, "Sampling temperature")
	f.IntVar(&opts.bufferSize, "buffer_size", config.DefaultBufferSize, "Screenshots kept on disk")
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.backend, "backend", config.DefaultBackend, "Inference backend (ollama|openai)")
	f.StringVar(&opts.captureDir, "capture_dir", "", "Screenshot directory (default <exe dir>/screen_captures)")
	f.StringVar(&opts.statusAddr, "status_addr", "", "Listen address of the status server; empty disables it")
	f.IntVar(&opts.inferenceTimeout, "inference_timeout", 0, "Seconds to wait for the model; 0 waits forever")

	return cmd
}

// loadConfig layers defaults, the optional file, the environment and set flags.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Load()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("interval") {
		cfg.Interval = time.Duration(opts.interval) * time.Second
	}
	if f.Changed("model_name") {
		cfg.ModelName = opts.modelName
	}
	if f.Changed("prompt") {
		cfg.Prompt = opts.prompt
	}
	if f.Changed("temperature") {
		cfg.Temperature = opts.temperature
	}
	if f.Changed("buffer_size") {
		cfg.BufferSize = opts.bufferSize
	}
	if f.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if f.Changed("capture_dir") {
		cfg.CaptureDir = opts.captureDir
	}
	if f.Changed("status_addr") {
		cfg.StatusAddr = opts.statusAddr
	}
	if f.Changed("inference_timeout") {
		cfg.InferenceTimeout = time.Duration(opts.inferenceTimeout) * time.Second
	}

	return cfg, cfg.Validate()
}

func setupLogging(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	client, err := inference.New(cfg)
	if err != nil {
		return err
	}
	mgr := orchestrator.New(cfg, screen.New(cfg.CaptureDir), client, notify.New())
	mgr.SetOutput(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second interrupt kills the process even mid-cycle.
		<-ctx.Done()
		stop()
	}()

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})

	g.Go(func() error {
		defer close(loopDone)
		return mgr.Run(gctx)
	})

	if cfg.StatusAddr != "" {
		httpServer := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           server.New(mgr).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			slog.Info("status server starting", "addr", cfg.StatusAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return apperrors.Wrap(err, apperrors.CodeConfig, "start status server").WithMetadata("addr", cfg.StatusAddr)
			}
			return nil
		})

		g.Go(func() error {
			<-loopDone
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("http shutdown error", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

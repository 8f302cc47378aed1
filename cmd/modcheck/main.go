package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"modcheck/internal/core/app"
	"modcheck/internal/core/config"
	"modcheck/internal/core/ports"
	"modcheck/internal/output"
	"modcheck/internal/shared/observability"
)

var (
	configPath = flag.String("config", config.DefaultFile, "Path to config file")
	snapshot   = flag.String("snapshot", "", "Path to snapshot file (overrides config)")
	watch      = flag.Bool("watch", false, "Rerun analysis whenever the snapshot changes")
	header     = flag.Bool("header", false, "Print a header row before findings")
	failOn     = flag.Bool("fail", false, "Exit with status 2 when findings are reported")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("modcheck v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	// Findings go to stdout; keep logs off it.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *snapshot != "" {
		cfg.Snapshot = *snapshot
	} else if flag.NArg() > 0 {
		cfg.Snapshot = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, os.Stdout))
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultFile {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			slog.Debug("no config file, using defaults", "path", path)
			cfg = config.Default()
			config.ApplyEnvOverrides(cfg)
			return cfg, nil
		}
	}
	return nil, err
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) int {
	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close(context.Background())

	if cfg.Observability.Enabled {
		srv := observability.NewServer(fmt.Sprintf(":%d", cfg.Observability.Port), a.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer srv.Stop(context.Background())
	}

	sink := output.NewTSVSink(stdout, *header)

	if *watch {
		err := a.Watch(ctx, cfg.Snapshot, func(result ports.AnalyzeResult, err error) {
			if err != nil {
				slog.Error("analysis failed", "error", err)
				return
			}
			if err := report(ctx, sink, result); err != nil {
				slog.Error("failed to write findings", "error", err)
			}
		})
		if err != nil {
			slog.Error("watch failed", "error", err)
			return 1
		}
		return 0
	}

	result, err := a.AnalysisService().Analyze(ctx, ports.AnalyzeRequest{SnapshotPath: cfg.Snapshot})
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}
	if err := report(ctx, sink, result); err != nil {
		slog.Error("failed to write findings", "error", err)
		return 1
	}
	if *failOn && len(result.Findings) > 0 {
		return 2
	}
	return 0
}

func report(ctx context.Context, sink ports.FindingSink, result ports.AnalyzeResult) error {
	if err := sink.Accept(ctx, result.Findings); err != nil {
		return err
	}
	if result.Diff != nil && !result.Diff.Empty() {
		slog.Info("findings changed since last run", "new", len(result.Diff.New), "fixed", len(result.Diff.Fixed))
		if *verbose {
			_, err := io.WriteString(os.Stderr, output.FormatDiff(*result.Diff))
			return err
		}
	}
	return nil
}

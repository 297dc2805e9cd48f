// Package commands implements the sqlforensic subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/config"
	"github.com/leapstack-labs/sqlforensic/internal/forensic"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

type configKey struct{}
type loggerKey struct{}
type rendererKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithRenderer stores the renderer in the context.
func WithRenderer(ctx context.Context, r *report.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// NewLogger builds the CLI logger. Verbose enables debug-level text logs;
// otherwise log output is discarded.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *report.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*report.Renderer); ok {
		return r
	}
	return report.NewRenderer(os.Stdout, os.Stderr, report.ModeAuto)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *report.Renderer
	Forensic *forensic.Forensic
}

// NewCommandContext validates the connection config and builds the shared
// command dependencies.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	if err := cfg.Connection.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("connecting", slog.String("dsn", cfg.Connection.MaskedDSN()))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: GetRenderer(cmd.Context()),
		Forensic: forensic.New(cfg.Connection.Connector(), logger),
	}, nil
}

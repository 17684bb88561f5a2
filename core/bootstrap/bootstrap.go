// Package bootstrap assembles the dispatch clients from configuration in
// one call, for programs that want the default wiring instead of
// constructing each client themselves.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"log/slog"

	"github.com/m3rciful/cordial/core/buildinfo"
	"github.com/m3rciful/cordial/core/component"
	"github.com/m3rciful/cordial/core/config"
	"github.com/m3rciful/cordial/core/discord"
	"github.com/m3rciful/cordial/core/logger"
	"github.com/m3rciful/cordial/core/reaction"
)

// Options control the bootstrap pipeline. Interactions is required for the
// component client; Users, when set, seeds the reaction client's self
// blacklist so paginator markers never trigger their own paginator.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	Interactions discord.InteractionClient
	Users        discord.UserClient

	LoadConfig func(path string) (*config.Config, error)
	LoggerInit func(*config.Config) error
}

// Result exposes the clients initialized by the bootstrap pipeline.
type Result struct {
	Config     *config.Config
	Reactions  *reaction.Client
	Components *component.Client
}

// Run loads configuration, initializes logging and constructs both dispatch
// clients. The config path comes from the environment variable (default
// CONFIG_PATH) falling back to DefaultConfigPath; with neither set the
// configuration is read from the environment alone.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Interactions == nil {
		return nil, fmt.Errorf("bootstrap: nil interaction client provided")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}

	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}

	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, err = config.FromEnv()
	} else {
		cfg, err = loadConfig(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading config: %w", err)
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = initLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	reactions := reaction.NewClient(reaction.WithClientConfig(cfg.Reaction, cfg.Handler))
	if opts.Users != nil {
		if err := reactions.SeedSelfBlacklist(ctx, opts.Users); err != nil {
			return nil, fmt.Errorf("bootstrap: seeding self blacklist: %w", err)
		}
	}
	components := component.NewClient(opts.Interactions, component.WithClientConfig(cfg.Handler))

	return &Result{
		Config:     cfg,
		Reactions:  reactions,
		Components: components,
	}, nil
}

// Close shuts down both clients, closing every registered handler.
func (r *Result) Close(ctx context.Context) error {
	return errors.Join(
		r.Reactions.Close(ctx),
		r.Components.Close(ctx),
	)
}

func initLogger(cfg *config.Config) error {
	logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info(context.Background(), "bootstrap", "start",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit))
	return nil
}

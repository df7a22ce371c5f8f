package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"confnode/internal/config"
	"confnode/internal/domain"
	"confnode/internal/environment"
	"confnode/internal/facts"
	"confnode/internal/logging"
	"confnode/internal/serverfacts"
	"confnode/internal/service"
	"confnode/internal/terminus"
	"confnode/internal/trusted"

	"github.com/spf13/cobra"
)

// app holds the wired collaborators shared by every subcommand
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	registry *environment.DirRegistry
	trusted  *trusted.Scope
	events   *service.EventBus
	terminus terminus.Terminus
	facts    facts.Store
	svc      *service.NodeService
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	levelName := cfg.Logging.Level
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		levelName = override
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	a := &app{
		cfg:      cfg,
		cfgPath:  path,
		logger:   logger,
		registry: environment.NewDirRegistry(cfg.Environments.Path, logger),
		trusted:  trusted.NewScope(),
		events:   service.NewEventBus(),
	}

	deps := domain.Deps{
		Settings:     cfg.Settings(),
		Environments: a.registry,
		Trusted:      a.trusted,
		Logger:       logger,
	}

	a.terminus, err = terminus.New(cfg.NodeTerminus, deps, logger)
	if err != nil {
		return nil, fmt.Errorf("node terminus: %w", err)
	}
	a.facts, err = facts.New(cfg.FactsTerminus, logger)
	if err != nil {
		terminus.Close(a.terminus)
		return nil, fmt.Errorf("facts terminus: %w", err)
	}

	a.svc = service.NewNodeService(a.terminus, a.facts, service.Options{
		Environments: a.registry,
		ServerFacts:  serverfacts.New(serverName(cfg)),
		Trusted:      a.trusted,
		Events:       a.events,
		Logger:       logger,
	})
	return a, nil
}

func (a *app) Close() error {
	return errors.Join(facts.Close(a.facts), terminus.Close(a.terminus))
}

func serverName(cfg *config.Config) string {
	if cfg.Server.Name != "" {
		return cfg.Server.Name
	}
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

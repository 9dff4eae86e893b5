package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"missionboard/internal/config"
	"missionboard/internal/engine"
	"missionboard/internal/repo"
	"missionboard/internal/seed"
)

// Options picks the config file and seed data for one process.
type Options struct {
	// ConfigPath is a file or a directory holding missionboard.yml. Empty
	// means the working directory; a missing file falls back to defaults.
	ConfigPath string
	// SeedDir overrides the embedded data set.
	SeedDir string
	Logger  *zap.Logger
}

// Build loads config and seed data and wires the engine.
func Build(opts Options) (engine.Engine, *config.Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return engine.Engine{}, nil, err
	}

	var data seed.Data
	if opts.SeedDir != "" {
		data, err = seed.LoadDir(opts.SeedDir, logger)
	} else {
		data, err = seed.Load(logger)
	}
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("load seed data: %w", err)
	}

	eng, err := engine.New(repo.New(data), cfg, logger)
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("build engine: %w", err)
	}
	logger.Info("mission board ready",
		zap.String("board", cfg.Board.Name),
		zap.Int("missions", eng.Repo.CountMissions()),
		zap.Bool("embedded_seed", opts.SeedDir == ""),
	)
	return eng, cfg, nil
}

// LoadConfig reads path as a config file, or as a directory holding one.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" && (isFile(path) || isYAMLName(path)) {
		cfg, err := config.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isYAMLName(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

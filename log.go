package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/voicevox-ue/vvstage/utils"
)

// envConfig holds the settings read only from the environment.
type envConfig struct {
	Debug   bool   `env:"VVSTAGE_DEBUG"`
	LogFile string `env:"VVSTAGE_LOG_FILE"`
	NoColor bool   `env:"VVSTAGE_NO_COLOR"`
}

var (
	envCfg     envConfig
	logClosers []func() error
	logFile    string
)

func setupLog() (func() error, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	envCfg = cfg

	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.LogFile != "" {
		if err := logToFile(cfg.LogFile); err != nil {
			return nil, err
		}
	}
	return closeLog, nil
}

// logToFile sends all further log output to path. Only the first call has
// an effect.
func logToFile(path string) error {
	if logFile != "" {
		return nil
	}
	path = utils.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	logFile = path
	logClosers = append(logClosers, f.Close)
	return nil
}

func closeLog() error {
	var errs []error
	for _, c := range logClosers {
		errs = append(errs, c())
	}
	logClosers = nil
	return errors.Join(errs...)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	trello "github.com/adamgary21/trello-backup"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// configEnv names the configuration file when --config isn't given.
const configEnv = "TRELLO_BACKUP_CONFIG"

type logConfig struct {
	Level  string `yaml:"level"`  // debug, info, warning, error
	Format string `yaml:"format"` // text or json
}

// config holds everything but the credentials and the backup name, which are command line options. All keys
// are optional.
type config struct {
	Endpoint    string        `yaml:"endpoint"`    // API base URL
	OutputDir   string        `yaml:"output_dir"`  // parent of the backup directory
	Concurrency int           `yaml:"concurrency"` // 0 means no limit
	Timeout     time.Duration `yaml:"timeout"`     // per API call, 0 means none; attachment downloads are unbounded
	WireLog     string        `yaml:"wire_log"`    // file to append raw API responses to
	Log         logConfig     `yaml:"log"`

	S3 *trello.S3Config `yaml:"s3"`
}

func loadConfig(pathname string) (*config, error) {
	var cfg config
	if pathname == "" {
		pathname = os.Getenv(configEnv)
	}
	if pathname != "" {
		f, err := os.Open(pathname)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config %s: %w", pathname, err)
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("config: concurrency must not be negative, got %d", cfg.Concurrency)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("config: timeout must not be negative, got %v", cfg.Timeout)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("config: log format must be text or json, got %q", cfg.Log.Format)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// configureLogger sets up the standard logrus logger, which all packages log through.
func configureLogger(cfg logConfig, w io.Writer) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetOutput(w)
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func clientOptions(cfg *config) []trello.ClientOption {
	var opts []trello.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, trello.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Timeout != 0 {
		opts = append(opts, trello.WithTimeout(cfg.Timeout))
	}
	if cfg.WireLog != "" {
		opts = append(opts, trello.WithWireLog(cfg.WireLog))
	}
	return opts
}

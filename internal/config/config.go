package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Source names where the product collection lives.
type Source string

const (
	SourceFile  Source = "file"
	SourceHTTP  Source = "http"
	SourceMongo Source = "mongo"
)

// Config holds the settings stockgrid reads at startup.
type Config struct {
	Source          Source
	APIURL          string
	DataFile        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	PageSize        int
	RefreshSchedule string
	StateDir        string
	LogPath         string
	ListenAddr      string
}

const (
	defaultConfigPath      = "~/.config/stockgrid/config.toml"
	defaultDataFile        = "~/.local/share/stockgrid/products.json"
	defaultStateDir        = "~/.local/state/stockgrid"
	defaultAPIURL          = "http://127.0.0.1:7600"
	defaultListenAddr      = "127.0.0.1:7600"
	defaultMongoDatabase   = "stockgrid"
	defaultMongoCollection = "products"
	defaultPageSize        = 5
	maxPageSize            = 100
)

// Environment keys that override the file.
const (
	EnvSource   = "STOCKGRID_SOURCE"
	EnvAPIURL   = "STOCKGRID_API_URL"
	EnvDataFile = "STOCKGRID_DATA_FILE"
	EnvMongoURI = "STOCKGRID_MONGO_URI"
	EnvListen   = "STOCKGRID_LISTEN"
)

type fileConfig struct {
	Source          string `toml:"source"`
	APIURL          string `toml:"api_url"`
	DataFile        string `toml:"data_file"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	PageSize        int    `toml:"page_size"`
	RefreshSchedule string `toml:"refresh_schedule"`
	StateDir        string `toml:"state_dir"`
	LogPath         string `toml:"log_path"`
	ListenAddr      string `toml:"listen_addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	stateDir := mustExpand(defaultStateDir)
	return Config{
		Source:          SourceFile,
		APIURL:          defaultAPIURL,
		DataFile:        mustExpand(defaultDataFile),
		MongoDatabase:   defaultMongoDatabase,
		MongoCollection: defaultMongoCollection,
		PageSize:        defaultPageSize,
		StateDir:        stateDir,
		LogPath:         filepath.Join(stateDir, "stockgrid.log"),
		ListenAddr:      defaultListenAddr,
	}
}

// LoadEnvFile reads KEY=value pairs into the process environment. An empty
// path tries ./.env; a missing file is not an error. Variables already set
// in the environment win.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load locates and parses the config file, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)
	cfg := merge(raw)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("data_file must be set for the file source"))
		}
	case SourceHTTP:
		if c.APIURL == "" {
			errs = append(errs, errors.New("api_url must be set for the http source"))
		}
	case SourceMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo_uri must be set for the mongo source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (want file, http or mongo)", c.Source))
	}
	if c.PageSize <= 0 || c.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("page_size %d out of range 1..%d", c.PageSize, maxPageSize))
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			errs = append(errs, fmt.Errorf("refresh_schedule: %w", err))
		}
	}
	return errors.Join(errs...)
}

// KVPath returns the directory of the local key-value store.
func (c Config) KVPath() string {
	return filepath.Join(c.StateDir, "kv")
}

func applyEnv(raw *fileConfig) {
	override := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	override(EnvSource, &raw.Source)
	override(EnvAPIURL, &raw.APIURL)
	override(EnvDataFile, &raw.DataFile)
	override(EnvMongoURI, &raw.MongoURI)
	override(EnvListen, &raw.ListenAddr)
}

func merge(raw fileConfig) Config {
	cfg := Default()

	if v := strings.ToLower(strings.TrimSpace(raw.Source)); v != "" {
		cfg.Source = Source(v)
	}
	setString(&cfg.APIURL, raw.APIURL)
	setString(&cfg.MongoURI, raw.MongoURI)
	setString(&cfg.MongoDatabase, raw.MongoDatabase)
	setString(&cfg.MongoCollection, raw.MongoCollection)
	setString(&cfg.RefreshSchedule, raw.RefreshSchedule)
	setString(&cfg.ListenAddr, raw.ListenAddr)
	if raw.PageSize != 0 {
		cfg.PageSize = raw.PageSize
	}

	if v := strings.TrimSpace(raw.DataFile); v != "" {
		cfg.DataFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.StateDir); v != "" {
		cfg.StateDir = mustExpand(v)
		cfg.LogPath = filepath.Join(cfg.StateDir, "stockgrid.log")
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	return cfg
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

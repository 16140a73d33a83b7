package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvSource, EnvAPIURL, EnvDataFile, EnvMongoURI, EnvListen} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != SourceFile {
		t.Fatalf("Source = %q, want %q", cfg.Source, SourceFile)
	}
	if cfg.PageSize != 5 {
		t.Fatalf("PageSize = %d, want 5", cfg.PageSize)
	}
	if cfg.ListenAddr != defaultListenAddr {
		t.Fatalf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	wantState, err := ExpandPath(defaultStateDir)
	if err != nil {
		t.Fatalf("ExpandPath(defaultStateDir) returned error: %v", err)
	}
	if cfg.StateDir != wantState {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantState)
	}
	if cfg.LogPath != filepath.Join(wantState, "stockgrid.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath)
	}
	if cfg.KVPath() != filepath.Join(wantState, "kv") {
		t.Fatalf("KVPath = %q", cfg.KVPath())
	}
	if !strings.HasPrefix(cfg.DataFile, home) {
		t.Fatalf("DataFile = %q, want it under HOME %q", cfg.DataFile, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
source = " HTTP "
api_url = "  http://10.0.0.5:9999  "
page_size = 20
refresh_schedule = "@every 30s"
state_dir = "  ~/.sg  "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != SourceHTTP {
		t.Fatalf("Source = %q, want http", cfg.Source)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PageSize != 20 {
		t.Fatalf("PageSize = %d, want 20", cfg.PageSize)
	}
	if cfg.RefreshSchedule != "@every 30s" {
		t.Fatalf("RefreshSchedule = %q", cfg.RefreshSchedule)
	}
	if cfg.StateDir != filepath.Join(home, ".sg") {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
	if cfg.LogPath != filepath.Join(cfg.StateDir, "stockgrid.log") {
		t.Fatalf("LogPath = %q, want it to follow state_dir", cfg.LogPath)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv(EnvSource, "mongo")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")
	t.Setenv(EnvListen, ":9000")

	path := writeConfig(t, `
source = "file"
listen_addr = "127.0.0.1:1"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != SourceMongo || cfg.MongoURI != "mongodb://db:27017" {
		t.Fatalf("env did not override source: %+v", cfg)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.MongoDatabase != defaultMongoDatabase || cfg.MongoCollection != defaultMongoCollection {
		t.Fatalf("mongo defaults lost: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STOCKGRID_DATA_FILE=/tmp/seed.yaml\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// godotenv never overrides a variable that is already present, even if
	// empty, so drop the cleared key first.
	os.Unsetenv(EnvDataFile)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile returned error: %v", err)
	}
	if got := os.Getenv(EnvDataFile); got != "/tmp/seed.yaml" {
		t.Fatalf("%s = %q", EnvDataFile, got)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file returned error: %v", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown source", `source = "ftp"`, "unknown source"},
		{"mongo without uri", `source = "mongo"`, "mongo_uri"},
		{"page size", `page_size = -1`, "page_size"},
		{"bad cron", `refresh_schedule = "every tuesday"`, "refresh_schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `source = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dtsmerrors "github.com/matzehuels/dtsm/pkg/errors"
)

// isolate points every XDG and override variable at a fresh location.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{"DTSM_SOURCE", "DTSM_REPO", "DTSM_REF", "DTSM_REDIS_ADDR", "GITHUB_TOKEN"} {
		t.Setenv(k, "")
	}
	return dir
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != SourceGit || cfg.Repo != DefaultRepo || cfg.Ref != DefaultRef {
		t.Errorf("cfg = %+v", cfg)
	}
	wantCache := filepath.Join(dir, "cache", appName)
	if cfg.CacheDir != wantCache {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, wantCache)
	}
	if !strings.HasPrefix(cfg.IndexDir, wantCache) {
		t.Errorf("IndexDir = %q, should be under the cache dir", cfg.IndexDir)
	}
	if cfg.Workers != DefaultWorkers || cfg.CacheTTL != DefaultTTL || cfg.Include != DefaultInclude {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadTOML(t *testing.T) {
	isolate(t)
	p := writeConfig(t, "config.toml", `
source = "github"
repo = "https://github.com/DefinitelyTyped/DefinitelyTyped.git"
ref = "main"
cache_ttl = "72h"
redis_addr = "localhost:6379"
workers = 4
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != SourceGitHub || cfg.Ref != "main" || cfg.Workers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CacheTTL != 72*time.Hour {
		t.Errorf("CacheTTL = %v, want 72h", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	p := writeConfig(t, "config.yaml", `
source: git
repo: git@github.com:DefinitelyTyped/DefinitelyTyped.git
include: "types/**/*.d.ts"
cache_ttl: 1h
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Include != "types/**/*.d.ts" {
		t.Errorf("Include = %q", cfg.Include)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	p := writeConfig(t, "config.toml", `source = "git"`+"\n"+`ref = "master"`)
	t.Setenv("DTSM_SOURCE", "github")
	t.Setenv("DTSM_REF", "release")
	t.Setenv("GITHUB_TOKEN", "tok")

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != SourceGitHub || cfg.Ref != "release" || cfg.GitHubToken != "tok" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
		code                dtsmerrors.Code
	}{
		{"bad toml", "c.toml", "source = ", dtsmerrors.ErrCodeInvalidInput},
		{"bad yaml", "c.yaml", "source: [", dtsmerrors.ErrCodeInvalidInput},
		{"unknown source", "c.toml", `source = "svn"`, dtsmerrors.ErrCodeInvalidInput},
		{"bad url", "c.toml", `repo = "ftp://example.com/x"`, dtsmerrors.ErrCodeInvalidInput},
		{"bad extension", "c.json", `{}`, dtsmerrors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if !dtsmerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRepoDirName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/borisyankov/DefinitelyTyped.git": "github.com_borisyankov_DefinitelyTyped",
		"git@github.com:a/b.git":                             "github.com_a_b",
	}
	for in, want := range tests {
		if got := repoDirName(in); got != want {
			t.Errorf("repoDirName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("CacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("CacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestDefaultPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/custom-config", appName, "config.toml"); p != want {
		t.Errorf("DefaultPath() = %q, want %q", p, want)
	}
}

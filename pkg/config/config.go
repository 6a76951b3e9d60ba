// Package config loads dtsm's tool configuration.
//
// Configuration is optional. Without a file every field takes its default,
// which installs from the DefinitelyTyped git repository. A file may be
// TOML (config.toml, the default) or YAML (.yaml/.yml):
//
//	source = "github"
//	repo = "https://github.com/DefinitelyTyped/DefinitelyTyped.git"
//	ref = "master"
//	cache_ttl = "72h"
//	redis_addr = "localhost:6379"
//
// Environment variables override the file: DTSM_SOURCE, DTSM_REPO,
// DTSM_REF, DTSM_REDIS_ADDR and GITHUB_TOKEN.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dtsm/pkg/errors"
)

// Index sources.
const (
	SourceGit    = "git"    // local git checkout of the index
	SourceGitHub = "github" // GitHub tree API and raw content
)

const (
	DefaultRepo    = "https://github.com/borisyankov/DefinitelyTyped.git"
	DefaultRef     = "master"
	DefaultInclude = "**/*.d.ts"
	DefaultTTL     = 7 * 24 * time.Hour
	DefaultWorkers = 8
)

// Config is the tool configuration.
type Config struct {
	Source      string        `toml:"source" yaml:"source"`
	Repo        string        `toml:"repo" yaml:"repo"`
	Ref         string        `toml:"ref" yaml:"ref"`
	IndexDir    string        `toml:"index_dir" yaml:"index_dir"`
	CacheDir    string        `toml:"cache_dir" yaml:"cache_dir"`
	CacheTTL    time.Duration `toml:"cache_ttl" yaml:"cache_ttl"`
	RedisAddr   string        `toml:"redis_addr" yaml:"redis_addr"`
	GitHubToken string        `toml:"github_token" yaml:"github_token"`
	Include     string        `toml:"include" yaml:"include"`
	Workers     int           `toml:"workers" yaml:"workers"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration at path. An empty path means the default
// location ([DefaultPath]); a missing file at the default location yields
// the defaults, a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid YAML in %s", path)
		}
	case ".toml", "":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid TOML in %s", path)
		}
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Source, "DTSM_SOURCE")
	set(&c.Repo, "DTSM_REPO")
	set(&c.Ref, "DTSM_REF")
	set(&c.RedisAddr, "DTSM_REDIS_ADDR")
	set(&c.GitHubToken, "GITHUB_TOKEN")
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = SourceGit
	}
	c.Source = strings.ToLower(c.Source)
	if c.Repo == "" {
		c.Repo = DefaultRepo
	}
	if c.Ref == "" {
		c.Ref = DefaultRef
	}
	if c.CacheDir == "" {
		if dir, err := CacheDir(); err == nil {
			c.CacheDir = dir
		}
	}
	if c.IndexDir == "" && c.CacheDir != "" {
		c.IndexDir = filepath.Join(c.CacheDir, "repos", repoDirName(c.Repo))
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultTTL
	}
	if c.Include == "" {
		c.Include = DefaultInclude
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceGit, SourceGitHub:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown index source %q (use %q or %q)", c.Source, SourceGit, SourceGitHub)
	}
	if strings.TrimSpace(c.Repo) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "repo cannot be empty")
	}
	if c.Source == SourceGit {
		if err := errors.ValidateURL(c.Repo); err != nil && !filepath.IsAbs(c.Repo) {
			return err
		}
	}
	if c.Workers > 256 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be at most 256, got %d", c.Workers)
	}
	return nil
}

// repoDirName turns a repository URL into a directory name.
func repoDirName(repo string) string {
	s := strings.TrimSuffix(strings.TrimSuffix(repo, "/"), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "git@")
	r := strings.NewReplacer("/", "_", ":", "_", "\\", "_", "@", "_")
	return r.Replace(s)
}

package cli

import (
	"context"
	"path/filepath"

	"github.com/matzehuels/dtsm/pkg/cache"
	"github.com/matzehuels/dtsm/pkg/config"
	"github.com/matzehuels/dtsm/pkg/index"
	"github.com/matzehuels/dtsm/pkg/index/gitindex"
	"github.com/matzehuels/dtsm/pkg/integrations/github"
)

// openIndex builds the index source named by cfg.Source.
func (c *CLI) openIndex(ctx context.Context, cfg *config.Config) (index.Index, func(), error) {
	switch cfg.Source {
	case config.SourceGitHub:
		store, err := openCache(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		client, err := github.NewClient(cfg.Repo, cfg.Ref, github.Options{
			Token:   cfg.GitHubToken,
			Cache:   store,
			TTL:     cfg.CacheTTL,
			Include: cfg.Include,
			Logger:  c.Logger,
		})
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return client, func() { store.Close() }, nil
	default:
		repo := gitindex.New(cfg.Repo, cfg.Ref, cfg.IndexDir, gitindex.Options{
			Include: cfg.Include,
			Logger:  c.Logger,
		})
		return repo, func() {}, nil
	}
}

// openCache returns the shared Redis cache when one is configured, and the
// per-user file cache otherwise.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}
	return cache.NewFileCache(httpCacheDir(cfg))
}

func httpCacheDir(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, "http")
}

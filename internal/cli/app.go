package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/critic"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/paper"
	"github.com/scholarshare/scholarshare/pkg/render"
	"github.com/scholarshare/scholarshare/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "scholarshare"

// cfg returns the effective configuration with overrides applied.
func (c *CLI) cfg() config.Config {
	return c.settings.Resolve()
}

// client builds the tier-routed completion client. Credentials are resolved
// per call, so override changes apply immediately.
func (c *CLI) client() llm.Client {
	timeout := time.Duration(c.cfg().CompletionTimeoutSeconds) * time.Second
	return llm.NewOpenAIClient(func(tier llm.Tier) config.ModelConfig {
		return c.cfg().ForTier(string(tier))
	}, timeout)
}

// images builds the social-card image generator, reusing the light tier's
// credentials.
func (c *CLI) images() llm.ImageGenerator {
	timeout := time.Duration(c.cfg().CompletionTimeoutSeconds) * time.Second
	return llm.NewOpenAIImageGenerator(func() config.ModelConfig {
		return c.cfg().Light
	}, "", timeout)
}

// newCache selects the cache backend: Redis when configured (shared across
// server instances), otherwise a file cache under the XDG cache directory.
// Errors degrade to the null cache; a broken cache must never block work.
func (c *CLI) newCache(ctx context.Context) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	cfg := c.cfg()
	if cfg.RedisAddr != "" {
		if rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr}); err == nil {
			return rc
		}
		loggerFromContext(ctx).Warn("redis unavailable, falling back to file cache", "addr", cfg.RedisAddr)
	}
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache()
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// newStore opens MongoDB when configured, otherwise an in-memory store so
// one-shot commands still work offline.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if uri := c.cfg().MongoURI; uri != "" {
		return store.NewMongoStore(ctx, uri, "")
	}
	return store.NewMemoryStore(), nil
}

// renderer builds the LaTeX toolchain wrapper with the configured timeout.
func (c *CLI) renderer() render.Renderer {
	return render.NewLaTeXRenderer(time.Duration(c.cfg().RenderTimeoutSeconds) * time.Second)
}

// inspector builds the vision critic over the completion client.
func (c *CLI) inspector(client llm.Client, logger *log.Logger) *critic.Critic {
	return critic.New(client, nil, logger)
}

// analyzePaper reads and analyzes the paper at path, going through the
// analysis cache so repeated commands against the same paper are free.
func (c *CLI) analyzePaper(ctx context.Context, path string, cch cache.Cache) (paper.Analysis, error) {
	content, err := readPaper(path)
	if err != nil {
		return paper.Analysis{}, err
	}
	analyzer := paper.NewAnalyzer(c.client(), cch, cache.NewDefaultKeyer(), loggerFromContext(ctx))
	return analyzer.Analyze(ctx, paper.Input{Content: content})
}

// readPaper loads paper text from a file, or stdin when path is "-".
func readPaper(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read paper from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read paper file %s", path)
	}
	return string(data), nil
}

// outputDir ensures and returns the directory generated files land in.
func (c *CLI) outputDir() (string, error) {
	dir := c.cfg().OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/scholarshare/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath looks for scholarshare.toml next to the working
// directory; a missing file is fine.
func defaultConfigPath() string {
	return appName + ".toml"
}

package config_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/folio/pkg/cli/config"
	"github.com/secmon-lab/folio/pkg/utils/logging"
)

const seedTOML = `
[[documents]]
doc_id = "about"
title = "About"
content = "Backend engineer."

[[projects]]
slug = "folio"
name = "Folio"
short_summary = "Portfolio assistant"

[[blogs]]
slug = "hello"
title = "Hello"
content = "First post."
published_at = "2024-01-02"
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	var buf bytes.Buffer
	logging.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	return &buf
}

func TestLogger(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := config.NewLoggerForTest("info", "json").NewLogger(&buf)
		gt.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("shown", "key", "value")

		var entry map[string]any
		gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		gt.Value(t, entry["msg"]).Equal("shown")
		gt.Value(t, entry["key"]).Equal("value")
	})

	t.Run("secret values are masked", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := config.NewLoggerForTest("debug", "json").NewLogger(&buf)
		gt.NoError(t, err)

		logger.Info("leak", "token", "sk-abcdef")
		gt.B(t, bytes.Contains(buf.Bytes(), []byte("sk-abcdef"))).False()
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json").NewLogger(&bytes.Buffer{})
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml").NewLogger(&bytes.Buffer{})
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestLLMConfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("openai without key yields no client", func(t *testing.T) {
		buf := captureDefaultLogger(t)
		client, err := config.NewLLMForTest(config.ProviderOpenAI, "", "").Configure(ctx)
		gt.NoError(t, err)
		gt.B(t, client == nil).True()
		gt.String(t, buf.String()).Contains("OpenAI API key not set, retrieval and chat are unavailable")
		gt.String(t, buf.String()).Contains(`"level":"WARN"`)
	})

	t.Run("gemini without project yields no client", func(t *testing.T) {
		buf := captureDefaultLogger(t)
		client, err := config.NewLLMForTest(config.ProviderGemini, "", "").Configure(ctx)
		gt.NoError(t, err)
		gt.B(t, client == nil).True()
		gt.String(t, buf.String()).Contains("Gemini project not set, retrieval and chat are unavailable")
		gt.String(t, buf.String()).Contains(`"level":"WARN"`)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := config.NewLLMForTest("llama", "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("toml file", func(t *testing.T) {
		seed, err := config.LoadSeed(ctx, writeFile(t, "content.toml", seedTOML))
		gt.NoError(t, err)
		gt.A(t, seed.Documents).Length(1)
		gt.A(t, seed.Projects).Length(1)
		gt.A(t, seed.Blogs).Length(1)
	})

	t.Run("json file", func(t *testing.T) {
		path := writeFile(t, "content.json", `{"projects":[{"slug":"a","name":"A"}]}`)
		seed, err := config.LoadSeed(ctx, path)
		gt.NoError(t, err)
		gt.A(t, seed.Projects).Length(1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadSeed(ctx, filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err).Is(config.ErrContentNotFound)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := config.LoadSeed(ctx, "")
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("invalid content", func(t *testing.T) {
		_, err := config.LoadSeed(ctx, writeFile(t, "content.toml", "[[projects]]\nname = \"no slug\"\n"))
		gt.Error(t, err)
	})
}

func TestParseGCSPath(t *testing.T) {
	bucket, object, err := config.ParseGCSPath("gs://my-bucket/path/to/content.toml")
	gt.NoError(t, err)
	gt.Value(t, bucket).Equal("my-bucket")
	gt.Value(t, object).Equal("path/to/content.toml")

	for _, path := range []string{"gs://bucket-only", "gs:///object", "/local/path"} {
		_, _, err := config.ParseGCSPath(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	}
}

func TestRepositoryConfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend reloads content", func(t *testing.T) {
		path := writeFile(t, "content.toml", seedTOML)
		store, err := config.NewRepositoryForTest("memory", path).Configure(ctx)
		gt.NoError(t, err)
		defer store.Close()

		gt.Value(t, store.WatchPath).Equal(path)
		projects, err := store.ListProjects(ctx)
		gt.NoError(t, err)
		gt.A(t, projects).Length(1)

		gt.NoError(t, os.WriteFile(path, []byte(seedTOML+"\n[[projects]]\nslug = \"b\"\nname = \"B\"\n"), 0o600))
		gt.NoError(t, store.Reload(ctx))

		projects, err = store.ListProjects(ctx)
		gt.NoError(t, err)
		gt.A(t, projects).Length(2)
	})

	t.Run("failed reload keeps content", func(t *testing.T) {
		path := writeFile(t, "content.toml", seedTOML)
		store, err := config.NewRepositoryForTest("memory", path).Configure(ctx)
		gt.NoError(t, err)
		defer store.Close()

		gt.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o600))
		gt.Error(t, store.Reload(ctx))

		projects, err := store.ListProjects(ctx)
		gt.NoError(t, err)
		gt.A(t, projects).Length(1)
	})

	t.Run("firestore requires project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("firestore", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("postgres", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestAgentValidate(t *testing.T) {
	gt.NoError(t, config.NewAgentForTest(5, 1536, time.Minute).Validate())
	gt.Error(t, config.NewAgentForTest(0, 1536, 0).Validate()).Is(config.ErrInvalidConfig)
	gt.Error(t, config.NewAgentForTest(5, 0, 0).Validate()).Is(config.ErrInvalidConfig)
	gt.Error(t, config.NewAgentForTest(5, 1536, -time.Second).Validate()).Is(config.ErrInvalidConfig)
}

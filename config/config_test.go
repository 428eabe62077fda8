package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CONFIG_FILE)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SITE_BASE_URL", "")

	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "mongo", c.Store.Driver)
	assert.Equal(t, "http://localhost:8080", c.Site.BaseURL)
	assert.Equal(t, 60, c.SEO.TitleMax)
	assert.Equal(t, 160, c.SEO.DescriptionMax)
	assert.Equal(t, 20, c.Feeds.Limit)
	assert.Equal(t, 300, c.Feeds.DescriptionMax)
	assert.Equal(t, 50000, c.Sitemap.MaxURLs)
	assert.Equal(t, 48*time.Hour, c.Sitemap.NewsAge)
}

func TestLoadParsesFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
site:
  name: "Acme"
  base_url: "https://acme.example/"
store:
  driver: memory
sitemap:
  news_age: 24h
cache:
  policies:
    post-list:
      max_age: 120
`)
	t.Setenv("SITE_BASE_URL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", ":9999")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example", c.Site.BaseURL)
	assert.Equal(t, "memory", c.Store.Driver)
	assert.Equal(t, 24*time.Hour, c.Sitemap.NewsAge)
	assert.Equal(t, "s3cret", c.Auth.Secret)
	assert.Equal(t, ":9999", c.Server.Addr)
	require.Contains(t, c.Cache.Policies, "post-list")
	require.NotNil(t, c.Cache.Policies["post-list"].MaxAge)
	assert.Equal(t, 120, *c.Cache.Policies["post-list"].MaxAge)
	assert.Nil(t, c.Cache.Policies["post-list"].StaleWhileRevalidate)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite\n")
	t.Setenv("STORE_DRIVER", "")

	_, err := Load(path)
	assert.ErrorContains(t, err, "store.driver")
}

func TestLoadRejectsRelativeBaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SITE_BASE_URL", "acme.example")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "site.base_url")
}

func TestLoadImportFeeds(t *testing.T) {
	path := writeConfig(t, `
import:
  timezone: Asia/Seoul
  feeds:
    - name: partner
      url: https://partner.example/feed.xml
`)
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SITE_BASE_URL", "")

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Import.Feeds, 1)
	assert.Equal(t, 10, c.Import.Feeds[0].Limit)
	assert.Equal(t, "Asia/Seoul", c.Import.Timezone)
	assert.Equal(t, 3, c.Kafka.MaxAttempts)
	assert.Equal(t, "sitecms-processor", c.Kafka.GroupID)

	bad := writeConfig(t, "import:\n  feeds:\n    - name: broken\n")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "import.feeds")
}

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/blobstore/httpstore"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.T().Chdir(s.dir)
}

func (s *ConfigTestSuite) write(name, body string) string {
	p := filepath.Join(s.dir, name)
	require.NoError(s.T(), os.WriteFile(p, []byte(body), 0o600))
	return p
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := Load(New(), "")
	s.Require().NoError(err)

	s.Equal("local", cfg.Source.Kind)
	s.Equal(".", cfg.Source.Root)
	s.Equal(2, cfg.Search.GramSize)
	s.Equal("index", cfg.Search.IndexPrefix)
	s.Equal(30*time.Second, cfg.Search.FetchTimeout)
	s.Equal("127.0.0.1:8080", cfg.Server.Addr)

	level, err := cfg.LogLevel()
	s.Require().NoError(err)
	s.Equal(slog.LevelWarn, level)
	s.Len(cfg.EngineOptions(), 4)
}

func (s *ConfigTestSuite) TestFileInWorkingDirectory() {
	s.write("gramsearch.yaml", `
source:
  kind: http
  url: https://example.org/archive/
http:
  rate: 5
render:
  timezone: Asia/Tokyo
  limit: 50
log:
  level: debug
  format: json
`)
	cfg, err := Load(New(), "")
	s.Require().NoError(err)

	s.Equal("http", cfg.Source.Kind)
	s.Equal("https://example.org/archive/", cfg.Source.URL)
	s.Equal(5.0, cfg.HTTP.Rate)
	s.Equal(50, cfg.Render.Limit)

	loc, err := cfg.Location()
	s.Require().NoError(err)
	s.Equal("Asia/Tokyo", loc.String())
	s.NotNil(cfg.Logger())
}

func (s *ConfigTestSuite) TestExplicitFileMustExist() {
	_, err := Load(New(), filepath.Join(s.dir, "missing.yaml"))
	s.Error(err)
}

func (s *ConfigTestSuite) TestEnvironmentOverridesFile() {
	path := s.write("custom.yaml", "search:\n  gram_size: 3\n")
	s.T().Setenv("GRAMSEARCH_SEARCH_GRAM_SIZE", "4")
	s.T().Setenv("GRAMSEARCH_SOURCE_ROOT", "/srv/archive")

	cfg, err := Load(New(), path)
	s.Require().NoError(err)
	s.Equal(4, cfg.Search.GramSize)
	s.Equal("/srv/archive", cfg.Source.Root)
}

func (s *ConfigTestSuite) TestValidation() {
	cases := map[string]string{
		"kind":        "source:\n  kind: ftp\n",
		"http url":    "source:\n  kind: http\n",
		"s3 bucket":   "source:\n  kind: s3\n",
		"minio":       "source:\n  kind: minio\n  bucket: b\n",
		"compression": "source:\n  compression: brotli\n",
		"gram size":   "search:\n  gram_size: 0\n",
		"timezone":    "render:\n  timezone: Mars/Olympus\n",
		"level":       "log:\n  level: loud\n",
		"format":      "log:\n  format: xml\n",
	}
	for name, body := range cases {
		s.Run(name, func() {
			_, err := Load(New(), s.write("bad.yaml", body))
			s.Error(err)
		})
	}
}

func (s *ConfigTestSuite) TestOpenStoreLocal() {
	ctx := context.Background()
	local := blobstore.NewLocalStore(s.dir)
	require.NoError(s.T(), local.Put(ctx, "index/channel", []byte("1\tC1\tgeneral\n")))

	cfg, err := Load(New(), s.write("local.yaml", "source:\n  root: "+s.dir+"\n"))
	s.Require().NoError(err)

	store, err := cfg.OpenStore(ctx)
	s.Require().NoError(err)
	data, err := blobstore.ReadAll(ctx, store, "index/channel")
	s.Require().NoError(err)
	s.Equal("1\tC1\tgeneral\n", string(data))
}

func (s *ConfigTestSuite) TestOpenStoreCompressed() {
	ctx := context.Background()
	compressed := blobstore.Compressed(blobstore.NewLocalStore(s.dir), blobstore.CompressionZstd)
	require.NoError(s.T(), compressed.Put(ctx, "index/channel", []byte("1\tC1\tgeneral\n")))

	cfg, err := Load(New(), s.write("zstd.yaml", "source:\n  root: "+s.dir+"\n  compression: zstd\n"))
	s.Require().NoError(err)

	store, err := cfg.OpenStore(ctx)
	s.Require().NoError(err)
	s.IsType(&blobstore.CompressedStore{}, store)

	data, err := blobstore.ReadAll(ctx, store, "index/channel")
	s.Require().NoError(err)
	s.Equal("1\tC1\tgeneral\n", string(data))
}

func (s *ConfigTestSuite) TestOpenStoreHTTP() {
	cfg, err := Load(New(), s.write("http.yaml", "source:\n  kind: http\n  url: http://localhost:9999/site\n"))
	s.Require().NoError(err)

	store, err := cfg.OpenStore(context.Background())
	s.Require().NoError(err)
	s.Require().IsType(&httpstore.Store{}, store)
	s.Equal("http://localhost:9999/site/index/channel", store.(*httpstore.Store).URL("index/channel"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/store"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[grid]
columns = 8
rows = 6

[viewport]
width = 1600

[store]
backend = "redis"
redis_addr = "cache:6379"
redis_db = 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, placement.Grid{Columns: 8, Rows: 6}, cfg.Grid)
	assert.Equal(t, Viewport{Width: 1600, Height: 800}, cfg.Viewport)
	assert.Equal(t, store.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, "panegrid", cfg.Store.MongoDatabase)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[grid\ncolumns = 5"},
		{"unknown key", "[grid]\ncolums = 5"},
		{"unknown table", "[window]\nsize = 1"},
		{"zero columns", "[grid]\ncolumns = 0"},
		{"negative viewport", "[viewport]\nheight = -1"},
		{"unknown backend", "[store]\nbackend = \"sqlite\""},
		{"empty addr", "[server]\naddr = \"\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "panegrid", "config.toml"), path)
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Grid = placement.Grid{Columns: 3, Rows: 3}
	cfg.Store.Backend = store.BackendMongo

	data, err := cfg.Encode()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestGeometry(t *testing.T) {
	geom, err := Default().Geometry()
	require.NoError(t, err)
	w, h := geom.CellSize()
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 200.0, h)
}

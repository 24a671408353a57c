// Package store persists registry snapshots ("layouts").
//
// A layout is a named [registry.Snapshot]. The [Store] interface has one
// implementation per backend:
//   - [FileStore]: one JSON file per layout, for the CLI
//   - [MemoryStore]: in-process map, for tests and throwaway sessions
//   - [RedisStore]: Redis strings plus a name index, for shared deployments
//   - [MongoStore]: one MongoDB document per layout
//
// The file, memory and redis backends store the same JSON encoding of the
// snapshot. MongoStore stores a BSON document per layout with the same
// fields, so a layout read from any backend restores the same registry.
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: store.BackendFile})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	reg, err := store.LoadRegistry(ctx, s, "default", geom, logger)
//	// ... mutate reg ...
//	err = store.SaveRegistry(ctx, s, "default", reg)
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// ErrCorrupt is returned by Load when a stored layout cannot be decoded.
var ErrCorrupt = errors.New("corrupt layout data")

// Backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the supported backend names.
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo}

// Store is the interface for layout storage backends.
type Store interface {
	// Load returns the snapshot stored under layout.
	// A layout that does not exist yields an empty snapshot and no error.
	Load(ctx context.Context, layout string) (registry.Snapshot, error)

	// Save replaces the snapshot stored under layout.
	Save(ctx context.Context, layout string, snap registry.Snapshot) error

	// Delete removes a layout. Deleting a missing layout is not an error.
	Delete(ctx context.Context, layout string) error

	// List returns the stored layout names, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"`

	// File backend
	Dir string `toml:"dir"`

	// Redis backend
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// MongoDB backend
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// DefaultConfig returns the file backend with local defaults for the
// network backends.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendFile,
		RedisAddr:     "localhost:6379",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "panegrid",
	}
}

// Validate checks that the backend is known.
func (c Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return perrors.New(perrors.ErrCodeInvalidConfig, "unknown store backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	return nil
}

// Open connects to the configured backend. Network backends are pinged
// with [RetryWithBackoff] before Open returns. The returned store reports
// to the observability store hooks.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendFile:
		s, err = NewFileStore(cfg.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, cfg.Backend), nil
}

// LoadRegistry builds a registry for geom from the stored layout.
// Unreadable layout data is logged and discarded, yielding an empty
// registry; backend failures are returned.
func LoadRegistry(ctx context.Context, s Store, layout string, geom placement.Geometry, logger *log.Logger, opts ...registry.Option) (*registry.Registry, error) {
	reg, err := registry.New(geom, opts...)
	if err != nil {
		return nil, err
	}

	snap, err := s.Load(ctx, layout)
	if errors.Is(err, ErrCorrupt) {
		logger.Warn("discarding unreadable layout", "layout", layout, "err", err)
		return reg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := reg.Restore(snap); err != nil {
		logger.Warn("discarding invalid layout", "layout", layout, "err", err)
		return reg, nil
	}
	logger.Debug("loaded layout", "layout", layout, "windows", len(snap))
	return reg, nil
}

// SaveRegistry stores the registry's snapshot under layout.
func SaveRegistry(ctx context.Context, s Store, layout string, reg *registry.Registry) error {
	return s.Save(ctx, layout, reg.Snapshot())
}

func encode(snap registry.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = registry.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "encode layout")
	}
	return data, nil
}

func decode(layout string, data []byte) (registry.Snapshot, error) {
	var snap registry.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("layout %q: %w: %v", layout, ErrCorrupt, err)
	}
	return snap, nil
}

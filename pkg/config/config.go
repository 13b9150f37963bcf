// Package config provides configuration management for fsnap.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/fsnap/config.toml)
//  3. Project config (.fsnap/config.toml or fsnap.toml)
//  4. Environment variables (FSNAP_*)
//  5. CLI flags (highest priority)
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/albertocavalcante/fsnap/internal/log"
	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultStorePath is where snapshots are kept, relative to the working directory.
const DefaultStorePath = ".fsnap"

// DefaultCacheSize is the number of snapshots kept in the in-memory LRU.
const DefaultCacheSize = 64

// Config is the main configuration struct for fsnap.
type Config struct {
	// Hash configures content digests.
	Hash HashConfig `toml:"hash"`

	// Walk configures how roots are snapshotted.
	Walk WalkConfig `toml:"walk"`

	// Store configures where snapshots are persisted.
	Store StoreConfig `toml:"store"`

	// Run configures parallelism.
	Run RunConfig `toml:"run"`

	// Log configures diagnostic output.
	Log LogConfig `toml:"log"`
}

// HashConfig selects the digest algorithm.
type HashConfig struct {
	// Algorithm is one of "sha256", "xxh3" or "xxhash".
	Algorithm string `toml:"algorithm"`
}

// WalkConfig holds snapshot walk settings.
type WalkConfig struct {
	// Unreadable is "missing" (record and continue) or "fail".
	Unreadable string `toml:"unreadable"`

	// FollowSymlinks resolves links to their targets.
	FollowSymlinks *bool `toml:"follow_symlinks"`

	// Ignore lists doublestar patterns relative to each root.
	Ignore []string `toml:"ignore"`
}

// StoreConfig holds snapshot store settings.
type StoreConfig struct {
	// Backend is "json", "sqlite" or "memory".
	Backend string `toml:"backend"`

	// Path is the state directory for file-backed stores.
	Path string `toml:"path"`

	// CacheSize is the LRU capacity in snapshots; 0 disables the cache.
	CacheSize *int `toml:"cache_size"`
}

// RunConfig holds execution settings.
type RunConfig struct {
	// Jobs bounds the number of roots snapshotted at once.
	Jobs int `toml:"jobs"`
}

// LogConfig holds logging defaults; CLI flags override them.
type LogConfig struct {
	// Verbosity is the -v level (0-4).
	Verbosity *int `toml:"verbosity"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	trueVal := true
	cacheSize := DefaultCacheSize
	verbosity := log.VerbosityWarn
	return &Config{
		Hash: HashConfig{
			Algorithm: string(snapshot.DefaultAlgorithm),
		},
		Walk: WalkConfig{
			Unreadable:     string(snapshot.TreatAsMissing),
			FollowSymlinks: &trueVal,
			Ignore:         []string{},
		},
		Store: StoreConfig{
			Backend:   BackendJSON,
			Path:      DefaultStorePath,
			CacheSize: &cacheSize,
		},
		Run: RunConfig{
			Jobs: runtime.NumCPU(),
		},
		Log: LogConfig{
			Verbosity: &verbosity,
			Format:    log.FormatText,
		},
	}
}

// Merge merges another config into this one (other takes precedence).
// Ignore patterns accumulate across layers.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Hash.Algorithm != "" {
		c.Hash.Algorithm = other.Hash.Algorithm
	}

	if other.Walk.Unreadable != "" {
		c.Walk.Unreadable = other.Walk.Unreadable
	}
	if other.Walk.FollowSymlinks != nil {
		c.Walk.FollowSymlinks = other.Walk.FollowSymlinks
	}
	if len(other.Walk.Ignore) > 0 {
		c.Walk.Ignore = append(c.Walk.Ignore, other.Walk.Ignore...)
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.CacheSize != nil {
		c.Store.CacheSize = other.Store.CacheSize
	}

	if other.Run.Jobs > 0 {
		c.Run.Jobs = other.Run.Jobs
	}

	if other.Log.Verbosity != nil {
		c.Log.Verbosity = other.Log.Verbosity
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}

// SnapshotOptions converts the walk and hash settings into snapshot.Options.
func (c *Config) SnapshotOptions() (snapshot.Options, error) {
	alg, err := snapshot.ParseAlgorithm(c.Hash.Algorithm)
	if err != nil {
		return snapshot.Options{}, err
	}
	policy, err := snapshot.ParseUnreadablePolicy(c.Walk.Unreadable)
	if err != nil {
		return snapshot.Options{}, err
	}
	return snapshot.Options{
		Algorithm:      alg,
		Unreadable:     policy,
		FollowSymlinks: c.Walk.FollowSymlinks == nil || *c.Walk.FollowSymlinks,
		Ignore:         append([]string(nil), c.Walk.Ignore...),
	}, nil
}

// CacheEntries returns the configured LRU capacity.
func (s StoreConfig) CacheEntries() int {
	if s.CacheSize == nil {
		return DefaultCacheSize
	}
	return *s.CacheSize
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.SnapshotOptions(); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q (want json, sqlite or memory)", c.Store.Backend))
	}
	if c.Store.Backend != BackendMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store path must not be empty"))
	}
	if c.Store.CacheEntries() < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.Store.CacheEntries()))
	}
	if c.Run.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Run.Jobs))
	}
	if err := log.ValidateFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

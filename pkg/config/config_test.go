package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/albertocavalcante/fsnap/pkg/snapshot"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Hash.Algorithm != "sha256" {
		t.Errorf("Hash.Algorithm = %q, want sha256", cfg.Hash.Algorithm)
	}
	if cfg.Walk.Unreadable != "missing" {
		t.Errorf("Walk.Unreadable = %q, want missing", cfg.Walk.Unreadable)
	}
	if cfg.Walk.FollowSymlinks == nil || !*cfg.Walk.FollowSymlinks {
		t.Error("Walk.FollowSymlinks should default to true")
	}
	if cfg.Store.Backend != BackendJSON {
		t.Errorf("Store.Backend = %q, want json", cfg.Store.Backend)
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, DefaultStorePath)
	}
	if cfg.Store.CacheEntries() != DefaultCacheSize {
		t.Errorf("CacheEntries() = %d, want %d", cfg.Store.CacheEntries(), DefaultCacheSize)
	}
	if cfg.Run.Jobs < 1 {
		t.Errorf("Run.Jobs = %d, want >= 1", cfg.Run.Jobs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := NewConfig()
	base.Walk.Ignore = []string{"**/.git"}

	falseVal := false
	zero := 0
	override := &Config{
		Hash: HashConfig{Algorithm: "xxh3"},
		Walk: WalkConfig{
			FollowSymlinks: &falseVal,
			Ignore:         []string{"**/node_modules"},
		},
		Store: StoreConfig{CacheSize: &zero},
		Run:   RunConfig{Jobs: 3},
	}
	base.Merge(override)

	if base.Hash.Algorithm != "xxh3" {
		t.Errorf("Hash.Algorithm = %q, want xxh3", base.Hash.Algorithm)
	}
	if *base.Walk.FollowSymlinks {
		t.Error("FollowSymlinks should be overridden to false")
	}
	if base.Walk.Unreadable != "missing" {
		t.Errorf("Walk.Unreadable should be preserved, got %q", base.Walk.Unreadable)
	}
	if !slices.Equal(base.Walk.Ignore, []string{"**/.git", "**/node_modules"}) {
		t.Errorf("Walk.Ignore = %q", base.Walk.Ignore)
	}
	if base.Store.CacheEntries() != 0 {
		t.Errorf("explicit cache_size 0 should win, got %d", base.Store.CacheEntries())
	}
	if base.Store.Backend != BackendJSON {
		t.Errorf("Store.Backend should be preserved, got %q", base.Store.Backend)
	}
	if base.Run.Jobs != 3 {
		t.Errorf("Run.Jobs = %d, want 3", base.Run.Jobs)
	}

	base.Merge(nil)
	if base.Hash.Algorithm != "xxh3" {
		t.Error("Merge(nil) should be a no-op")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[hash]
algorithm = "xxhash"

[walk]
unreadable = "fail"
follow_symlinks = false
ignore = ["**/*.tmp", "build/**"]

[store]
backend = "sqlite"
path = "/var/lib/fsnap"
cache_size = 8

[run]
jobs = 2
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadConfigFile(configPath)
	if cfg == nil {
		t.Fatal("loadConfigFile returned nil")
	}

	if cfg.Hash.Algorithm != "xxhash" {
		t.Errorf("Hash.Algorithm = %q", cfg.Hash.Algorithm)
	}
	if cfg.Walk.Unreadable != "fail" {
		t.Errorf("Walk.Unreadable = %q", cfg.Walk.Unreadable)
	}
	if cfg.Walk.FollowSymlinks == nil || *cfg.Walk.FollowSymlinks {
		t.Error("Walk.FollowSymlinks should be false")
	}
	if len(cfg.Walk.Ignore) != 2 {
		t.Errorf("Walk.Ignore = %q", cfg.Walk.Ignore)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/var/lib/fsnap" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.CacheSize == nil || *cfg.Store.CacheSize != 8 {
		t.Error("Store.CacheSize should be 8")
	}
	if cfg.Run.Jobs != 2 {
		t.Errorf("Run.Jobs = %d", cfg.Run.Jobs)
	}
}

func TestLoadConfigFileMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.toml")
	if err := os.WriteFile(path, []byte("[hash\nalgorithm = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if cfg := loadConfigFile(path); cfg != nil {
		t.Error("malformed config should be ignored by the implicit layers")
	}
	if cfg := loadConfigFile(filepath.Join(tmpDir, "absent.toml")); cfg != nil {
		t.Error("absent config should return nil")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()

	good := filepath.Join(tmpDir, "good.toml")
	if err := os.WriteFile(good, []byte("[store]\nbackend = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Hash.Algorithm != "sha256" {
		t.Error("defaults should fill unspecified keys")
	}

	unknown := filepath.Join(tmpDir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("[hash]\nalgo = \"sha256\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(unknown); err == nil || !strings.Contains(err.Error(), "hash.algo") {
		t.Errorf("LoadFile should report unknown keys, got %v", err)
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "absent.toml")); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	t.Setenv("FSNAP_HASH_ALGORITHM", "xxh3")
	t.Setenv("FSNAP_WALK_UNREADABLE", "fail")
	t.Setenv("FSNAP_WALK_FOLLOW_SYMLINKS", "no")
	t.Setenv("FSNAP_WALK_IGNORE", "a/**, b/**")
	t.Setenv("FSNAP_STORE_BACKEND", "sqlite")
	t.Setenv("FSNAP_STORE_PATH", "/tmp/state")
	t.Setenv("FSNAP_STORE_CACHE_SIZE", "5")
	t.Setenv("FSNAP_JOBS", "7")
	t.Setenv("FSNAP_LOG_FORMAT", "json")

	cfg := NewConfig()
	applyEnvironmentVariables(cfg)

	if cfg.Hash.Algorithm != "xxh3" {
		t.Errorf("Hash.Algorithm = %q", cfg.Hash.Algorithm)
	}
	if cfg.Walk.Unreadable != "fail" {
		t.Errorf("Walk.Unreadable = %q", cfg.Walk.Unreadable)
	}
	if *cfg.Walk.FollowSymlinks {
		t.Error("FollowSymlinks should be false")
	}
	if !slices.Equal(cfg.Walk.Ignore, []string{"a/**", "b/**"}) {
		t.Errorf("Walk.Ignore = %q", cfg.Walk.Ignore)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/state" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.CacheEntries() != 5 {
		t.Errorf("CacheEntries() = %d", cfg.Store.CacheEntries())
	}
	if cfg.Run.Jobs != 7 {
		t.Errorf("Run.Jobs = %d", cfg.Run.Jobs)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestApplyEnvironmentVariablesIgnoresGarbage(t *testing.T) {
	t.Setenv("FSNAP_JOBS", "lots")
	t.Setenv("FSNAP_STORE_CACHE_SIZE", "big")
	t.Setenv("FSNAP_WALK_FOLLOW_SYMLINKS", "maybe")

	cfg := NewConfig()
	jobs := cfg.Run.Jobs
	applyEnvironmentVariables(cfg)

	if cfg.Run.Jobs != jobs {
		t.Errorf("Run.Jobs changed to %d", cfg.Run.Jobs)
	}
	if cfg.Store.CacheEntries() != DefaultCacheSize {
		t.Errorf("CacheEntries() = %d", cfg.Store.CacheEntries())
	}
	if !*cfg.Walk.FollowSymlinks {
		t.Error("unrecognised boolean should leave the default")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"a, b, c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{"", []string{}},
		{"single", []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestProjectConfigSearch(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directory structure
	subDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Create .git marker at root
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	// Create config at root level
	configContent := `
[hash]
algorithm = "xxh3"
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadProjectConfigFrom(subDir)
	if cfg == nil {
		t.Fatal("loadProjectConfigFrom returned nil, expected to find config")
	}
	if cfg.Hash.Algorithm != "xxh3" {
		t.Errorf("Hash.Algorithm = %q, want xxh3", cfg.Hash.Algorithm)
	}
}

func TestProjectConfigDirTakesPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ConfigDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigDirName, "config.toml"), []byte("[run]\njobs = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("[run]\njobs = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadProjectConfigFrom(tmpDir)
	if cfg == nil || cfg.Run.Jobs != 4 {
		t.Errorf("expected .fsnap/config.toml to win, got %+v", cfg)
	}
}

func TestProjectConfigStopsAtWorkspaceRoot(t *testing.T) {
	tmpDir := t.TempDir()
	repo := filepath.Join(tmpDir, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Config above the repository root must not leak in.
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("[run]\njobs = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if cfg := loadProjectConfigFrom(repo); cfg != nil {
		t.Errorf("search crossed the repository root: %+v", cfg)
	}
}

func TestWorkspaceRootDetection(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		isDir  bool
	}{
		{"git", ".git", true},
		{"mercurial", ".hg", true},
		{"bazel module", "MODULE.bazel", false},
		{"gradle", "settings.gradle.kts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if isWorkspaceRoot(dir) {
				t.Fatal("empty directory should not be a workspace root")
			}
			path := filepath.Join(dir, tt.marker)
			var err error
			if tt.isDir {
				err = os.Mkdir(path, 0o755)
			} else {
				err = os.WriteFile(path, nil, 0o644)
			}
			if err != nil {
				t.Fatal(err)
			}
			if !isWorkspaceRoot(dir) {
				t.Errorf("%s should mark a workspace root", tt.marker)
			}
		})
	}
}

func TestSnapshotOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Hash.Algorithm = "xxhash"
	cfg.Walk.Unreadable = "fail"
	f := false
	cfg.Walk.FollowSymlinks = &f
	cfg.Walk.Ignore = []string{"**/*.log"}

	opts, err := cfg.SnapshotOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Algorithm != snapshot.XXHash || opts.Unreadable != snapshot.Fail || opts.FollowSymlinks {
		t.Errorf("SnapshotOptions() = %+v", opts)
	}
	if !slices.Equal(opts.Ignore, []string{"**/*.log"}) {
		t.Errorf("Ignore = %q", opts.Ignore)
	}

	opts.Ignore[0] = "changed"
	if cfg.Walk.Ignore[0] != "**/*.log" {
		t.Error("SnapshotOptions must not alias the config's ignore slice")
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad algorithm", func(c *Config) { c.Hash.Algorithm = "md5" }, "md5"},
		{"bad policy", func(c *Config) { c.Walk.Unreadable = "skip" }, "skip"},
		{"bad backend", func(c *Config) { c.Store.Backend = "redis" }, "redis"},
		{"empty path", func(c *Config) { c.Store.Path = "" }, "store path"},
		{"negative cache", func(c *Config) { c.Store.CacheSize = &neg }, "cache_size"},
		{"zero jobs", func(c *Config) { c.Run.Jobs = 0 }, "jobs"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}

	mem := NewConfig()
	mem.Store.Backend = BackendMemory
	mem.Store.Path = ""
	if err := mem.Validate(); err != nil {
		t.Errorf("memory backend needs no path: %v", err)
	}
}

func TestGetProjectConfigPaths(t *testing.T) {
	paths := GetProjectConfigPaths("/work")
	want := []string{
		filepath.Join("/work", ".fsnap", "config.toml"),
		filepath.Join("/work", "fsnap.toml"),
	}
	if !slices.Equal(paths, want) {
		t.Errorf("GetProjectConfigPaths() = %q, want %q", paths, want)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "fsnap.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".fsnap"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "fsnap"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/fsnap/config.toml)
//  3. Project config (.fsnap/config.toml or fsnap.toml)
//  4. Environment variables (FSNAP_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config from specified directory
	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	// Layer 4: Environment variables
	applyEnvironmentVariables(cfg)

	return cfg
}

// LoadFile loads defaults, the given file and the environment.
// Unlike the implicit layers, a file named explicitly must exist and parse,
// and unknown keys are reported.
func LoadFile(path string) (*Config, error) {
	var fileCfg Config
	md, err := toml.DecodeFile(path, &fileCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg := NewConfig()
	cfg.Merge(&fileCfg)
	applyEnvironmentVariables(cfg)
	return cfg, nil
}

// loadGlobalConfig loads the global user configuration from ~/.config/fsnap/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from the given directory.
func loadProjectConfigFrom(dir string) *Config {
	// Search up the directory tree for config files
	current := dir
	for {
		for _, candidate := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(candidate); cfg != nil {
				return cfg
			}
		}

		// Stop at filesystem root or repository root
		if isWorkspaceRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isWorkspaceRoot checks if the directory is a repository or build workspace root.
func isWorkspaceRoot(dir string) bool {
	markers := []string{".git", ".hg", "WORKSPACE", "MODULE.bazel", "settings.gradle", "settings.gradle.kts"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file, or nil if it is
// absent or malformed.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}

	return &cfg
}

// applyEnvironmentVariables applies FSNAP_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	if v := os.Getenv("FSNAP_HASH_ALGORITHM"); v != "" {
		cfg.Hash.Algorithm = v
	}

	if v := os.Getenv("FSNAP_WALK_UNREADABLE"); v != "" {
		cfg.Walk.Unreadable = v
	}
	applyBoolEnv("FSNAP_WALK_FOLLOW_SYMLINKS", &cfg.Walk.FollowSymlinks)
	// FSNAP_WALK_IGNORE: comma-separated patterns, added to the file layers
	if v := os.Getenv("FSNAP_WALK_IGNORE"); v != "" {
		cfg.Walk.Ignore = append(cfg.Walk.Ignore, splitAndTrim(v)...)
	}

	if v := os.Getenv("FSNAP_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("FSNAP_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	applyIntEnv("FSNAP_STORE_CACHE_SIZE", &cfg.Store.CacheSize)

	if v := os.Getenv("FSNAP_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Run.Jobs = n
		}
	}

	applyIntEnv("FSNAP_VERBOSITY", &cfg.Log.Verbosity)
	if v := os.Getenv("FSNAP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// applyIntEnv applies an integer environment variable to a pointer.
// Unparseable values are ignored.
func applyIntEnv(envVar string, target **int) {
	if v := os.Getenv(envVar); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*target = &n
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}

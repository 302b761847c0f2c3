package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultCompilerPath = "kotlinc"
	DefaultRuntimePath  = "kotlin"
	DefaultArchiverPath = "jar"
	DefaultResolverPath = "coursier"
	DefaultVerbose      = false
)

// Holds the configuration options for krun
type Config struct {
	// Root directory for compiled artifacts, scriptlets and the journal
	CacheDir string

	// Kotlin installation directory; inferred from the compiler binary
	// when empty
	KotlinHome string

	// Path to the Kotlin compiler
	CompilerPath string

	// Path to the Kotlin runtime launcher
	RuntimePath string

	// Path to the jar tool used for wrapper merging
	ArchiverPath string

	// Path to the dependency resolver tool
	ResolverPath string

	// Enable verbose output
	Verbose bool
}

func Load() (*Config, error) {
	cfg := &Config{
		CacheDir:     viper.GetString("cache_dir"),
		KotlinHome:   viper.GetString("kotlin_home"),
		CompilerPath: viper.GetString("compiler_path"),
		RuntimePath:  viper.GetString("runtime_path"),
		ArchiverPath: viper.GetString("archiver_path"),
		ResolverPath: viper.GetString("resolver_path"),
		Verbose:      viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if cfg.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine cache directory: %w", err)
		}

		cfg.CacheDir = filepath.Join(base, "krun")
	}

	if cfg.CompilerPath == "" {
		cfg.CompilerPath = DefaultCompilerPath
	}

	if cfg.RuntimePath == "" {
		cfg.RuntimePath = DefaultRuntimePath
	}

	if cfg.ArchiverPath == "" {
		cfg.ArchiverPath = DefaultArchiverPath
	}

	if cfg.ResolverPath == "" {
		cfg.ResolverPath = DefaultResolverPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	abs, err := filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("invalid cache directory: %v", err)
	}
	c.CacheDir = abs

	if c.KotlinHome != "" {
		abs, err := filepath.Abs(c.KotlinHome)
		if err != nil {
			return fmt.Errorf("invalid kotlin home: %v", err)
		}

		c.KotlinHome = abs
	}

	return nil
}

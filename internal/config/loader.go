package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configExts are the accepted config file formats, in search order.
var configExts = []string{"yml", "yaml", "json", "toml"}

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForRun loads configuration for a pipeline run: defaults, environment,
// global config, local config found from the script's directory, then flags.
func (l *Loader) LoadForRun(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.bindEnvironment()
	l.loadGlobalConfig()
	l.loadLocalConfig(args)
	l.bindCommandFlags(cmd)

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("compiler_path", DefaultCompilerPath)
	viper.SetDefault("runtime_path", DefaultRuntimePath)
	viper.SetDefault("archiver_path", DefaultArchiverPath)
	viper.SetDefault("resolver_path", DefaultResolverPath)
	viper.SetDefault("verbose", DefaultVerbose)
}

// bindEnvironment binds the environment keys the tool honors
func (l *Loader) bindEnvironment() {
	_ = viper.BindEnv("cache_dir", "KRUN_CACHE_DIR")
	_ = viper.BindEnv("kotlin_home", "KOTLIN_HOME")
}

// loadGlobalConfig loads global configuration from the user config dir
func (l *Loader) loadGlobalConfig() {
	base, err := os.UserConfigDir()
	if err != nil {
		return
	}

	globalDir := filepath.Join(base, "krun")

	for _, ext := range configExts {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// loadLocalConfig loads local configuration found by walking up from the
// script's directory. Non-file references (stdin, URL, inline) search from
// the working directory instead.
func (l *Loader) loadLocalConfig(args []string) {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	if len(args) > 0 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
				dir = filepath.Dir(abs)
			}
		}
	}

	localPath := findLocalConfig(dir)
	if localPath != "" {
		viper.SetConfigFile(localPath)
		_ = viper.ReadInConfig()
	}
}

// findLocalConfig walks up from dir looking for a .krun config file, so a
// script anywhere inside a project picks up that project's settings.
func findLocalConfig(dir string) string {
	for {
		for _, ext := range configExts {
			candidate := filepath.Join(dir, ".krun."+ext)

			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
}

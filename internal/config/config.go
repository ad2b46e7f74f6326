package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JSH-Team/FrameHunter/internal/utils/logger"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = "framehunter"
	ConfigFileName = "config.yaml"
	EnvPrefix      = "FRAMEHUNTER"
)

func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigDirName), nil
}

// DefaultConfigPath returns <UserConfigDir>/framehunter/config.yaml
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DefaultBinariesDir is where bundled ffmpeg/ffprobe binaries are looked up
func DefaultBinariesDir() string {
	dir, err := GetConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ffmpeg")
}

// LoadConfig loads the config file at path, or the default location when
// path is empty. A missing file is created with the defaults first.
// FRAMEHUNTER_* environment variables override file values.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, fmt.Errorf("failed to locate config dir: %w", err)
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("Creating default config at %s", path)
		if err := SaveConfig(path, Defaults()); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	if cfg.BinariesDir == "" {
		cfg.BinariesDir = DefaultBinariesDir()
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so that values missing from an older
// config file, and their environment overrides, are still picked up
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("ffmpeg_path", d.FFmpegPath)
	v.SetDefault("ffprobe_path", d.FFprobePath)
	v.SetDefault("binaries_dir", d.BinariesDir)
	v.SetDefault("executor", d.Executor)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("tool_threads", d.ToolThreads)
	v.SetDefault("tool_launches_per_second", d.ToolLaunchesPerSecond)
	v.SetDefault("cpu_sample_interval", d.CPUSampleInterval)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("image_format", d.ImageFormat)
	v.SetDefault("jpeg_quality", d.JPEGQuality)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("output_prefix", d.OutputPrefix)
	v.SetDefault("log_level", d.LogLevel)
}

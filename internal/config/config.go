// Package config provides configuration management for the motion daemon
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Avatar   AvatarConfig   `mapstructure:"avatar"`
	Motion   MotionConfig   `mapstructure:"motion"`
	Player   PlayerConfig   `mapstructure:"player"`
	Face     FaceConfig     `mapstructure:"face"`
	Interact InteractConfig `mapstructure:"interact"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Log      LogConfig      `mapstructure:"log"`
}

// AvatarConfig locates the avatar asset
type AvatarConfig struct {
	ModelPath string `mapstructure:"model_path"`
	Name      string `mapstructure:"name"`
}

// MotionConfig configures the motion catalog and retargeting
type MotionConfig struct {
	ManifestPath  string  `mapstructure:"manifest_path"`
	WatchManifest bool    `mapstructure:"watch_manifest"`
	ArmSpreadBias float32 `mapstructure:"arm_spread_bias"` // degrees, signed
}

// PlayerConfig configures the playback scheduler
type PlayerConfig struct {
	HobbyIdleThreshold time.Duration `mapstructure:"hobby_idle_threshold"`
}

// FaceConfig configures the expression controller
type FaceConfig struct {
	MicroExpressions bool `mapstructure:"micro_expressions"`
}

// InteractConfig configures pointer interaction
type InteractConfig struct {
	DragMode           string  `mapstructure:"drag_mode"` // ik or direct
	AffectionThreshold float32 `mapstructure:"affection_threshold"`
	JellyTension       float32 `mapstructure:"jelly_tension"`
	JellyDamping       float32 `mapstructure:"jelly_damping"`
}

// GatewayConfig configures the viewer gateway
type GatewayConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	FrameRate    int           `mapstructure:"frame_rate"` // pose frames per second streamed to viewers
}

// LogConfig configures logging output
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Avatar: AvatarConfig{
			ModelPath: "assets/avatar.vrm",
			Name:      "avatar",
		},
		Motion: MotionConfig{
			ManifestPath:  "assets/motions/manifest.json",
			WatchManifest: true,
			ArmSpreadBias: 5,
		},
		Player: PlayerConfig{
			HobbyIdleThreshold: 600 * time.Second,
		},
		Face: FaceConfig{
			MicroExpressions: true,
		},
		Interact: InteractConfig{
			DragMode:           "ik",
			AffectionThreshold: 20,
			JellyTension:       120,
			JellyDamping:       7,
		},
		Gateway: GatewayConfig{
			ListenAddr:   "localhost:8765",
			PingInterval: 30 * time.Second,
			FrameRate:    30,
		},
		Log: LogConfig{
			Level:   "debug",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, err
	}

	configDir := filepath.Join(homeDir, ".avatarmotion")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("AVATARMOTION")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(homeDir, ".avatarmotion")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("avatar", cfg.Avatar)
	viper.Set("motion", cfg.Motion)
	viper.Set("player", cfg.Player)
	viper.Set("face", cfg.Face)
	viper.Set("interact", cfg.Interact)
	viper.Set("gateway", cfg.Gateway)
	viper.Set("log", cfg.Log)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".avatarmotion"), nil
}

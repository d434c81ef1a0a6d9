// Package config loads CLI defaults from a kekup.yaml config file with
// KEKUP_* environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/gamepowerx/kekupload-go/internal/upload"
	"github.com/spf13/viper"
)

type Config struct {
	ServerURL   string        `mapstructure:"server_url"`
	ChunkSize   int64         `mapstructure:"chunk_size"`
	ReadSize    int64         `mapstructure:"read_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// Load reads kekup.yaml from the given path (or the working directory
// and ~/.config/kekup when empty). A missing file is not an error; the
// defaults and environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("kekup")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kekup")
	}
	v.SetEnvPrefix("KEKUP")
	v.AutomaticEnv()

	v.SetDefault("server_url", "")
	v.SetDefault("chunk_size", int64(upload.DefaultChunkSize))
	v.SetDefault("read_size", int64(upload.DefaultReadSize))
	v.SetDefault("max_attempts", 0)
	v.SetDefault("timeout", 3*time.Minute)
	v.SetDefault("user_agent", "KekUpload-Go")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %v", err)
	}
	return &cfg, nil
}

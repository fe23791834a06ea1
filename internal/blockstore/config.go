package blockstore

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tunables a cpfile mount needs from its backing
// block store: block geometry and the cache budget. Loaded as a
// mapstructure-tagged struct, with defaults via viper.SetDefault and
// env override via viper.SetEnvPrefix.
type Config struct {
	BlockSize   uint32 `mapstructure:"block_size"`
	EntrySize   uint32 `mapstructure:"entry_size"`
	HeaderBytes uint32 `mapstructure:"header_bytes"`
	CacheBytes  int    `mapstructure:"cache_bytes"`
}

// LoadConfig loads cpfile mount configuration using Viper, searching
// the working directory, ./config, and $HOME/.cpfile, falling back to
// sane defaults when no config file is present.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("cpfile-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.cpfile")

	viper.SetDefault("block_size", 4096)
	viper.SetDefault("entry_size", 256)
	viper.SetDefault("header_bytes", 64)
	viper.SetDefault("cache_bytes", 64*1024*1024)

	viper.SetEnvPrefix("CPFILE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("blockstore: read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("blockstore: unmarshal config: %w", err)
	}
	return &cfg, nil
}

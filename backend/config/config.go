// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the server runtime parameters.
type Config struct {
	ListenAddr    string        `mapstructure:"listen_addr"`
	LogLevel      string        `mapstructure:"log_level"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	ClientURLs    []string      `mapstructure:"client_urls"`
	CloudinaryURL string        `mapstructure:"cloudinary_url"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
}

const (
	defaultListenAddr    = ":3000"
	defaultLogLevel      = "info"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "flashchat"
	defaultRedisAddr     = "localhost:6379"
	defaultClientURL     = "http://localhost:5173"
	defaultCacheTTL      = time.Hour
)

// Load reads configuration from the provided file path (if any) and the
// environment. Environment variables are prefixed with FLASHCHAT_ and
// override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLASHCHAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_addr", defaultListenAddr)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("mongo_uri", defaultMongoURI)
	v.SetDefault("mongo_database", defaultMongoDatabase)
	v.SetDefault("redis_addr", defaultRedisAddr)
	v.SetDefault("client_urls", []string{defaultClientURL})
	v.SetDefault("cache_ttl", defaultCacheTTL.String())
	v.SetDefault("secure_cookie", false)
	// Empty defaults register the keys so env-only values survive Unmarshal.
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cloudinary_url", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper leaves durations as strings; normalize here.
	if raw := v.GetString("cache_ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid cache_ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt_secret is required (FLASHCHAT_JWT_SECRET)")
	}

	return cfg, nil
}

// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLASHCHAT_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "flashchat", cfg.MongoDatabase)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.ClientURLs)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.SecureCookie)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("FLASHCHAT_JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLASHCHAT_JWT_SECRET", "s3cret")
	t.Setenv("FLASHCHAT_LISTEN_ADDR", ":8080")
	t.Setenv("FLASHCHAT_CACHE_TTL", "15m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9000\"\njwt_secret: file-secret\nredis_addr: redis:6379\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestLoadRejectsBadCacheTTL(t *testing.T) {
	t.Setenv("FLASHCHAT_JWT_SECRET", "s3cret")
	t.Setenv("FLASHCHAT_CACHE_TTL", "soon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

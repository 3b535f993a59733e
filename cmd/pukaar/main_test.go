package main

import (
	"log"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pukaarhealth/pukaar/pkg/config"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func TestBuildStoreWithoutRedis(t *testing.T) {
	cfg := &config.Config{}

	store := buildStore(cfg, testLogger())
	defer store.Close()

	_, ok := store.(*session.MemoryStore)
	assert.True(t, ok, "no configured address must yield the in-memory store")
}

func TestBuildStoreFallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "127.0.0.1:1"

	store := buildStore(cfg, testLogger())
	defer store.Close()

	_, ok := store.(*session.MemoryStore)
	assert.True(t, ok, "unreachable redis must fall back, not abort startup")
}

func TestBuildStoreUsesRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()

	store := buildStore(cfg, testLogger())
	defer store.Close()

	_, ok := store.(*session.RedisStore)
	require.True(t, ok, "reachable redis must be preferred over the fallback")
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.PostsPerPage != 10 {
		t.Fatalf("expected 10 posts per page, got %d", cfg.PostsPerPage)
	}
	if cfg.CacheTTL != 20*time.Second {
		t.Fatalf("expected 20s cache ttl, got %v", cfg.CacheTTL)
	}
	if cfg.LoginURL != "/auth/login/" {
		t.Fatalf("unexpected login url %q", cfg.LoginURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTS_PER_PAGE", "3")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("MEDIA_ROOT", "/srv/media")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.PostsPerPage != 3 {
		t.Fatalf("expected override page size")
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("expected override cache ttl")
	}
	if cfg.MediaRoot != "/srv/media" {
		t.Fatalf("expected override media root")
	}
}

func TestLoadInvalidPageSizeFallsBack(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "0")

	cfg := Load()
	if cfg.PostsPerPage != 10 {
		t.Fatalf("expected fallback page size, got %d", cfg.PostsPerPage)
	}
}

func TestLoadCacheTTL(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"20":    20 * time.Second,
		"90s":   90 * time.Second,
		"0":     20 * time.Second,
		"-1m":   20 * time.Second,
		"never": 20 * time.Second,
	} {
		t.Setenv("CACHE_TTL", raw)
		if got := Load().CacheTTL; got != want {
			t.Fatalf("CACHE_TTL=%q: expected %v, got %v", raw, want, got)
		}
	}
}

package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ENV", "DATABASE_URL", "SQLITE_PATH", "REDIS_URL", "JWT_SECRET", "UPLOAD_DIR"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.SQLitePath != "./data/chat.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.UploadDir != "./data/uploads" {
		t.Errorf("UploadDir = %q", cfg.UploadDir)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" || cfg.JWTSecret != "" {
		t.Errorf("optional collaborators should default to unset: %+v", cfg)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be true by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/chat" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.JWTSecret != "secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	defer func() {
		if recover() == nil {
			t.Error("expected panic when JWT_SECRET is missing in production")
		}
	}()
	Load()
}

func TestProductionRequiresRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "secret")

	defer func() {
		if recover() == nil {
			t.Error("expected panic when REDIS_URL is missing in production")
		}
	}()
	Load()
}

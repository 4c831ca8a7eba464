package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "erp"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{AccessSecret: "access", RefreshSecret: "refresh"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.Issuer = "erp"
	c.Auth.Audience = "erp-web"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh ttl, got %v", c.Auth.RefreshTokenTTL)
	}
	if c.Login.MaxAttempts != 5 || c.Login.AttemptWindow != 15*time.Minute {
		t.Fatalf("unexpected login defaults: %+v", c.Login)
	}
	if c.Auth.SecureCookies {
		t.Fatalf("secure cookies should stay off locally unless requested")
	}
}

func TestValidate_RejectsSharedSecret(t *testing.T) {
	c := validLocal()
	c.Auth.RefreshSecret = c.Auth.AccessSecret
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when access and refresh secrets match")
	}
}

func TestValidate_ProductionForcesSecureCookies(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.Issuer = "erp"
	c.Auth.Audience = "erp-web"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Auth.SecureCookies {
		t.Fatalf("expected secure cookies in production")
	}
}

func TestValidate_KafkaTopicDefault(t *testing.T) {
	c := validLocal()
	c.Kafka.Brokers = []string{"localhost:9092"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Kafka.AuditTopic != "auth.audit" {
		t.Fatalf("expected default audit topic, got %q", c.Kafka.AuditTopic)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "erp")
	t.Setenv("DB_NAME", "erp")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
}

func TestLoad_FromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("DB_MAX_OPEN_CONNS", "12")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9000" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.Auth.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", c.Auth.AccessTokenTTL)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
	if c.DB.MaxOpenConns != 12 || c.DB.ConnMaxLifetime != 10*time.Minute {
		t.Fatalf("unexpected pool settings %+v", c.DB)
	}
}

func TestLoad_RejectsUnparsableOptionalValues(t *testing.T) {
	cases := map[string]string{
		"LOGIN_MAX_ATTEMPTS":    "abc",
		"AUTH_SECURE_COOKIES":   "maybe",
		"JWT_REFRESH_TTL":       "7days",
		"REDIS_DB":              "one",
		"DB_CONN_MAX_IDLE_TIME": "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, val)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("error should name %s: %v", key, err)
			}
		})
	}
}

func TestValidate_RejectsNegativePool(t *testing.T) {
	c := validLocal()
	c.DB.MaxOpenConns = -1
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for negative pool size")
	}
}

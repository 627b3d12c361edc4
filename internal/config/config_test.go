package config

import "testing"

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		Store: StoreConfig{Backend: "postgres", Tables: "comments:body,ip"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "ipstamp"},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RedisBackendSkipsDB(t *testing.T) {
	c := validLocal()
	c.Store.Backend = "redis"
	c.DB = DBConfig{}
	c.Redis = RedisConfig{Host: "localhost", Port: 6379}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MemoryBackendRejectedInProduction(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Store.Backend = "memory"
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_IPValueIsFreeForm(t *testing.T) {
	for _, v := range []string{"unknown", "console", "10.0.0.1"} {
		c := validLocal()
		c.IP.Value = &v
		if err := c.Validate(); err != nil {
			t.Fatalf("IP_VALUE %q: unexpected error: %v", v, err)
		}
	}
}

func TestLoad_ReadsIPSettings(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RECORD_TABLES", "comments:body,client_address")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("IP_ATTRIBUTE", "client_address")
	t.Setenv("IP_VALUE", "10.0.0.1")
	t.Setenv("IP_DISABLED", "false")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IP.Attribute != "client_address" {
		t.Fatalf("unexpected attribute %q", c.IP.Attribute)
	}
	if c.IP.Value == nil || *c.IP.Value != "10.0.0.1" {
		t.Fatalf("unexpected value %v", c.IP.Value)
	}
	if len(c.IP.TrustedProxies) != 2 || c.IP.TrustedProxies[1] != "192.168.0.0/16" {
		t.Fatalf("unexpected proxies %v", c.IP.TrustedProxies)
	}
}

func TestLoad_RejectsBadBool(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RECORD_TABLES", "comments:body")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("IP_DISABLED", "maybe")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

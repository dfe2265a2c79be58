package config

import (
	"os"
	"strings"
)

// Environment variables read at startup.
const (
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvSupabaseAnonKey   = "SUPABASE_ANON_KEY"
	EnvSupabaseJWTSecret = "SUPABASE_JWT_SECRET"
	EnvKintoneDomain     = "KINTONE_DOMAIN"
	EnvKintoneAppID      = "KINTONE_APP_ID"
	EnvKintoneBaseURL    = "KINTONE_BASE_URL"
	EnvAddr              = "XINTONE_ADDR"
	EnvLogLevel          = "XINTONE_LOG_LEVEL"
	EnvAuthMode          = "XINTONE_AUTH_MODE"
	EnvRequiredRole      = "XINTONE_REQUIRED_ROLE"
	EnvDatabaseURL       = "DATABASE_URL"
)

// LookupEnv reads from the process environment.
func LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// applyEnv overrides values with non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) (string, bool)) {
	lookup := func(key string) (string, bool) {
		v, ok := getenv(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvAddr); ok {
		c.Server.Addr = v
	}

	if v, ok := lookup(EnvKintoneDomain); ok {
		c.Kintone.Domain = v
	}
	if v, ok := lookup(EnvKintoneAppID); ok {
		c.Kintone.DefaultAppID = v
	}
	if v, ok := lookup(EnvKintoneBaseURL); ok {
		c.Kintone.BaseURL = v
	}

	if v, ok := lookup(EnvSupabaseURL); ok {
		c.Auth.ProviderURL = v
	}
	if v, ok := lookup(EnvSupabaseAnonKey); ok {
		c.Auth.AnonKey = v
	}
	if v, ok := lookup(EnvSupabaseJWTSecret); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup(EnvAuthMode); ok {
		c.Auth.Mode = v
	}
	if v, ok := lookup(EnvRequiredRole); ok {
		c.Auth.RequiredRole = v
	}

	if v, ok := lookup(EnvDatabaseURL); ok {
		if c.Profiles == nil {
			c.Profiles = &Profiles{Driver: "postgres"}
		}
		c.Profiles.DSN = v
	}
}

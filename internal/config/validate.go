package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.By(validLogLevel)),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Server == nil || c.Kintone == nil || c.Auth == nil {
		result = multierror.Append(result, fmt.Errorf("server, kintone and auth blocks are required"))
	}

	if c.Server != nil {
		if err := c.Server.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("server: %w", err))
		}
	}
	if c.Kintone != nil {
		if err := c.Kintone.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("kintone: %w", err))
		}
	}
	if c.Auth != nil {
		if err := c.Auth.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("auth: %w", err))
		}
	}
	if c.Profiles != nil {
		if err := c.Profiles.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("profiles: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// Validate validates the server block.
func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.ShutdownTimeout, validation.By(validDuration)),
	)
}

// Validate validates the kintone block.
func (k Kintone) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Domain,
			validation.When(k.BaseURL == "", validation.Required.Error("domain or base_url is required")),
			is.Host,
		),
		validation.Field(&k.BaseURL, is.URL),
		validation.Field(&k.DefaultAppID, is.Digit),
		validation.Field(&k.Timeout, validation.By(validDuration)),
	)
}

// Validate validates the auth block.
func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Mode,
			validation.Required,
			validation.In(AuthModeIntrospect, AuthModeJWT, AuthModeJWKS),
		),
		validation.Field(&a.ProviderURL,
			validation.When(a.Mode != AuthModeJWT, validation.Required),
			is.URL,
		),
		validation.Field(&a.AnonKey,
			validation.When(a.Mode == AuthModeIntrospect, validation.Required),
		),
		validation.Field(&a.JWTSecret,
			validation.When(a.Mode == AuthModeJWT, validation.Required),
		),
		validation.Field(&a.Timeout, validation.By(validDuration)),
	)
}

// Validate validates the profiles block.
func (p Profiles) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Driver, validation.Required, validation.In("postgres", "sqlite")),
		validation.Field(&p.DSN, validation.Required),
	)
}

func validDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like \"10s\"")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validLogLevel(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if hclog.LevelFromString(strings.ToLower(s)) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

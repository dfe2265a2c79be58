package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/xintone/xintone/internal/config"
	"github.com/xintone/xintone/internal/version"
	"github.com/xintone/xintone/pkg/auth"
	"github.com/xintone/xintone/pkg/database"
	"github.com/xintone/xintone/pkg/kintone"
	"github.com/xintone/xintone/pkg/models"
	"github.com/xintone/xintone/pkg/tracing"
)

// Server contains the server configuration and shared dependencies.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Verifier resolves bearer tokens to identities.
	Verifier auth.Verifier

	// Kintone is the upstream record service.
	Kintone *kintone.Service

	// DB is the profile database. Nil when no profiles block is configured.
	DB *gorm.DB

	// Tracer is the APM tracer. A disabled tracer is a no-op.
	Tracer *tracing.Tracer
}

// New builds a Server from a validated config.
func New(cfg *config.Config, log hclog.Logger) (*Server, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	srv := &Server{
		Config: cfg,
		Logger: log,
	}

	var dd tracing.Config
	if cfg.Datadog != nil {
		dd = tracing.Config{
			Enabled:   cfg.Datadog.Enabled,
			Service:   cfg.Datadog.Service,
			Env:       cfg.Datadog.Env,
			AgentAddr: cfg.Datadog.AgentAddr,
		}
	}
	srv.Tracer = tracing.Start(dd, version.Version, log.Named("tracing"))

	kcfg := &kintone.Config{
		Domain:    cfg.Kintone.Domain,
		BaseURL:   cfg.Kintone.BaseURL,
		TLSVerify: cfg.Kintone.TLSVerify,
		Timeout:   cfg.KintoneTimeout(),
	}
	ks, err := kintone.NewService(kcfg, srv.Tracer.WrapClient(kcfg.NewHTTPClient()), log.Named("kintone"))
	if err != nil {
		srv.Close()
		return nil, err
	}
	srv.Kintone = ks

	v, err := newVerifier(cfg, srv.Tracer.WrapClient(&http.Client{Timeout: cfg.AuthTimeout()}))
	if err != nil {
		srv.Close()
		return nil, err
	}

	if cfg.Profiles != nil {
		db, err := database.Connect(database.Config{
			Driver: cfg.Profiles.Driver,
			DSN:    cfg.Profiles.DSN,
		}, log.Named("database"))
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("error connecting to profiles database: %w", err)
		}
		srv.DB = db

		if cfg.Profiles.Driver == database.DriverSQLite {
			if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
				srv.Close()
				return nil, fmt.Errorf("error migrating profiles database: %w", err)
			}
		}
		v = auth.WithRoleLookup(v, &auth.ProfileRoles{DB: db})
	}
	srv.Verifier = v

	log.Debug("server initialized",
		"auth_mode", cfg.Auth.Mode,
		"kintone", ks.App(cfg.Kintone.DefaultAppID).Target(),
		"profiles", cfg.Profiles != nil,
		"required_role", cfg.Auth.RequiredRole,
	)

	return srv, nil
}

// newVerifier builds the token verifier for the configured auth mode.
func newVerifier(cfg *config.Config, httpClient *http.Client) (auth.Verifier, error) {
	supa := &auth.SupabaseConfig{
		URL:     cfg.Auth.ProviderURL,
		AnonKey: cfg.Auth.AnonKey,
		Timeout: cfg.AuthTimeout(),
	}

	switch cfg.Auth.Mode {
	case config.AuthModeIntrospect, "":
		return auth.NewSupabaseVerifier(supa, httpClient)

	case config.AuthModeJWT:
		var issuer string
		if cfg.Auth.ProviderURL != "" {
			issuer = strings.TrimRight(cfg.Auth.ProviderURL, "/") + "/auth/v1"
		}
		return auth.NewJWTVerifier(auth.JWTConfig{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   issuer,
			Audience: cfg.Auth.Audience,
		})

	case config.AuthModeJWKS:
		return auth.NewJWKSVerifier(auth.JWKSConfigForSupabase(supa, cfg.Auth.Audience), httpClient)

	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Auth.Mode)
	}
}

// AppID returns the requested app id, falling back to the configured default.
func (s *Server) AppID(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return s.Config.Kintone.DefaultAppID
}

// Close releases resources held by the server.
func (s *Server) Close() error {
	var result *multierror.Error
	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.Tracer.Stop()
	return result.ErrorOrNil()
}

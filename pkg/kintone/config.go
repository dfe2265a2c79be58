package kintone

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config contains configuration for the kintone REST client.
//
// Example configuration (HCL):
//
//	kintone {
//	  domain         = "example.cybozu.com"
//	  default_app_id = "42"
//	  timeout        = "30s"
//	}
type Config struct {
	// Domain is the kintone subdomain host, e.g. "example.cybozu.com".
	Domain string

	// BaseURL overrides "https://{Domain}". Used for on-premise gateways and
	// tests.
	BaseURL string

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development with self-signed certs.
	TLSVerify *bool

	// Timeout for upstream requests. Default: 30 seconds.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		TLSVerify: &tlsVerify,
		Timeout:   30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Domain == "" && c.BaseURL == "" {
		return fmt.Errorf("domain is required")
	}

	if c.BaseURL != "" {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("base_url must use http or https scheme, got: %s", parsedURL.Scheme)
		}
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout)
	}

	return nil
}

// baseURL returns the root URL upstream paths are joined to.
func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "https://" + c.Domain
}

// NewHTTPClient creates an HTTP client configured for kintone.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

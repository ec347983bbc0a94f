// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/telekom/geotrace/internal/helper"
)

// ProviderKind names a supported geolocation service.
type ProviderKind string

const (
	// KindIPAPI is the ip-api.com service.
	KindIPAPI ProviderKind = "ip-api"
	// KindIPAPICo is the ipapi.co service.
	KindIPAPICo ProviderKind = "ipapi.co"
)

// Config is the configuration of the geolocation resolver.
type Config struct {
	// CacheTTL is how long positive and negative results are kept.
	CacheTTL time.Duration `json:"cacheTtl" yaml:"cacheTtl" mapstructure:"cacheTtl"`
	// Timeout bounds a single provider request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Retry configures retries of provider requests that failed in transport.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
	// Providers are queried in the listed order.
	Providers []ProviderConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig configures a single provider.
type ProviderConfig struct {
	Kind ProviderKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	// BaseURL overrides the default endpoint of the provider.
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" mapstructure:"baseUrl"`
}

// DefaultConfig returns the resolver configuration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CacheTTL: time.Hour,
		Timeout:  5 * time.Second,
		Retry: helper.RetryConfig{
			Count: 0,
			Delay: 500 * time.Millisecond,
		},
		Providers: []ProviderConfig{
			{Kind: KindIPAPI},
			{Kind: KindIPAPICo},
		},
	}
}

// Validate checks the configuration and returns all violations.
func (c *Config) Validate() error {
	var errs []error
	if c.CacheTTL <= 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.Timeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.Retry.Count < 0 || c.Retry.Delay < 0 {
		errs = append(errs, ErrInvalidRetry)
	}
	if len(c.Providers) == 0 {
		errs = append(errs, ErrNoProviders)
	}
	for _, p := range c.Providers {
		switch p.Kind {
		case KindIPAPI, KindIPAPICo:
		default:
			errs = append(errs, ErrUnknownProvider{Kind: p.Kind})
		}
		if p.BaseURL != "" {
			if u, err := url.ParseRequestURI(p.BaseURL); err != nil || u.Host == "" {
				errs = append(errs, &url.Error{Op: "parse", URL: p.BaseURL, Err: errors.New("invalid provider base url")})
			}
		}
	}
	return errors.Join(errs...)
}

// NewProviders creates the configured providers in order.
// All providers share one http client bounded by the configured timeout.
func NewProviders(cfg Config) ([]Provider, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		switch p.Kind {
		case KindIPAPI:
			providers = append(providers, NewIPAPI(client, p.BaseURL))
		case KindIPAPICo:
			providers = append(providers, NewIPAPICo(client, p.BaseURL))
		default:
			return nil, ErrUnknownProvider{Kind: p.Kind}
		}
	}
	return providers, nil
}

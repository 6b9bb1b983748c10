package core

import (
	"fmt"
	"strings"
	"time"
)

// RESTConfig covers the OAuth2/REST surface.
type RESTConfig struct {
	// BaseURL is the root of the vendor REST API, e.g.
	// https://host/Interconnect-PRD/. The token endpoint and all
	// operation endpoints are resolved against it.
	BaseURL string `koanf:"base_url" mapstructure:"base_url"`

	// ClientID is the OAuth2 client identifier; it is both issuer and
	// subject of the signed assertion.
	ClientID string `koanf:"client_id" mapstructure:"client_id"`

	// PrivateKey is the base64-encoded PKCS#8 DER of the RSA signing key.
	PrivateKey string `koanf:"private_key" mapstructure:"private_key"`

	// TokenCacheTTL caps how long a fetched token is reused even when the
	// server grants a longer lifetime.
	TokenCacheTTL time.Duration `koanf:"token_cache_ttl" mapstructure:"token_cache_ttl"`
}

// SOAPConfig covers the WS-Security query surface.
type SOAPConfig struct {
	// BaseURL is the root the query listener path is resolved against.
	BaseURL string `koanf:"base_url" mapstructure:"base_url"`

	Username string `koanf:"username" mapstructure:"username"`
	Password string `koanf:"password" mapstructure:"password"`

	// ClientID is sent as the Epic-Client-ID MIME header.
	ClientID string `koanf:"client_id" mapstructure:"client_id"`

	// MaxRecordsPerFetch is the page size used when a query does not
	// carry its own.
	MaxRecordsPerFetch int `koanf:"max_records_per_fetch" mapstructure:"max_records_per_fetch"`
}

type Config struct {
	ServiceName string     `koanf:"service_name" mapstructure:"service_name"`
	REST        RESTConfig `koanf:"rest" mapstructure:"rest"`
	SOAP        SOAPConfig `koanf:"soap" mapstructure:"soap"`

	// HTTPTimeout bounds every outbound call on both surfaces.
	HTTPTimeout time.Duration `koanf:"http_timeout" mapstructure:"http_timeout"`

	// ListConcurrency bounds the per-row detail reads during listing.
	ListConcurrency int `koanf:"list_concurrency" mapstructure:"list_concurrency"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "epic-connector",
		REST: RESTConfig{
			TokenCacheTTL: time.Hour,
		},
		SOAP: SOAPConfig{
			MaxRecordsPerFetch: DefaultMaxRecordsPerFetch,
		},
		HTTPTimeout:     600 * time.Second,
		ListConcurrency: 4,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.REST.BaseURL) == "" {
		return fmt.Errorf("core: rest.base_url is required")
	}
	if strings.TrimSpace(c.REST.ClientID) == "" {
		return fmt.Errorf("core: rest.client_id is required")
	}
	if strings.TrimSpace(c.REST.PrivateKey) == "" {
		return fmt.Errorf("core: rest.private_key is required")
	}
	if c.REST.TokenCacheTTL < 0 {
		return fmt.Errorf("core: rest.token_cache_ttl must not be negative")
	}
	if strings.TrimSpace(c.SOAP.BaseURL) == "" {
		return fmt.Errorf("core: soap.base_url is required")
	}
	if strings.TrimSpace(c.SOAP.Username) == "" {
		return fmt.Errorf("core: soap.username is required")
	}
	if c.SOAP.MaxRecordsPerFetch < 0 {
		return fmt.Errorf("core: soap.max_records_per_fetch must not be negative")
	}
	if c.ListConcurrency < 0 {
		return fmt.Errorf("core: list_concurrency must not be negative")
	}
	return nil
}

// TokenURL resolves the OAuth2 token endpoint against the REST base; the
// resolved URL is also the audience of the signed assertion.
func (c Config) TokenURL() string {
	return joinURL(c.REST.BaseURL, EndpointToken)
}

// SOAPListenerURL resolves the query listener endpoint.
func (c Config) SOAPListenerURL() string {
	return joinURL(c.SOAP.BaseURL, EndpointSOAPListener)
}

func joinURL(base, path string) string {
	base = strings.TrimSpace(base)
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if base == "" {
		return path
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + path
}

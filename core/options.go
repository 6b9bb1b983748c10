package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// ConfigProvider loads the connector configuration on top of defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// RawConfigLoader supplies the raw key/value tree a provider builds from.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, loaded config, and runtime overrides
// into the effective configuration.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader wraps a literal config tree, mostly for tests
// and embedding callers that already resolved their own sources.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	rest := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.REST.BaseURL) != "" {
		rest["base_url"] = cfg.REST.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.REST.ClientID) != "" {
		rest["client_id"] = cfg.REST.ClientID
	}
	if includeZero || strings.TrimSpace(cfg.REST.PrivateKey) != "" {
		rest["private_key"] = cfg.REST.PrivateKey
	}
	if includeZero || cfg.REST.TokenCacheTTL != 0 {
		rest["token_cache_ttl"] = cfg.REST.TokenCacheTTL
	}
	if len(rest) > 0 {
		layer["rest"] = rest
	}

	soap := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.SOAP.BaseURL) != "" {
		soap["base_url"] = cfg.SOAP.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.SOAP.Username) != "" {
		soap["username"] = cfg.SOAP.Username
	}
	if includeZero || strings.TrimSpace(cfg.SOAP.Password) != "" {
		soap["password"] = cfg.SOAP.Password
	}
	if includeZero || strings.TrimSpace(cfg.SOAP.ClientID) != "" {
		soap["client_id"] = cfg.SOAP.ClientID
	}
	if includeZero || cfg.SOAP.MaxRecordsPerFetch != 0 {
		soap["max_records_per_fetch"] = cfg.SOAP.MaxRecordsPerFetch
	}
	if len(soap) > 0 {
		layer["soap"] = soap
	}

	if includeZero || cfg.HTTPTimeout != time.Duration(0) {
		layer["http_timeout"] = cfg.HTTPTimeout
	}
	if includeZero || cfg.ListConcurrency != 0 {
		layer["list_concurrency"] = cfg.ListConcurrency
	}
	return layer
}

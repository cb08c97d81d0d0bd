package oauth2

import (
	"fmt"
	"maps"
	"os"
	"slices"
)

// EnvLookup resolves an environment variable; os.LookupEnv in production.
type EnvLookup func(key string) (string, bool)

type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Registry is the immutable set of known providers. Credentials are read on
// every call so that a missing secret surfaces at use, not at boot.
type Registry struct {
	providers map[string]ProviderConfig
	lookup    EnvLookup
}

func NewRegistry(providers []ProviderConfig, lookup EnvLookup) *Registry {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	r := &Registry{
		providers: make(map[string]ProviderConfig, len(providers)),
		lookup:    lookup,
	}
	for _, p := range providers {
		p.Scopes = slices.Clone(p.Scopes)
		p.AuthParams = maps.Clone(p.AuthParams)
		r.providers[p.Name] = p
	}
	return r
}

func (r *Registry) Lookup(name string) (ProviderConfig, error) {
	p, ok := r.providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: unsupported provider %q", ErrConfiguration, name)
	}
	return p, nil
}

func (r *Registry) Credentials(name string) (Credentials, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return Credentials{}, err
	}
	id, ok := r.lookup(p.ClientIDEnv)
	if !ok || id == "" {
		return Credentials{}, fmt.Errorf("%w: %s client id not set (%s)", ErrConfiguration, name, p.ClientIDEnv)
	}
	secret, ok := r.lookup(p.ClientSecretEnv)
	if !ok || secret == "" {
		return Credentials{}, fmt.Errorf("%w: %s client secret not set (%s)", ErrConfiguration, name, p.ClientSecretEnv)
	}
	return Credentials{ClientID: id, ClientSecret: secret}, nil
}

// AppType returns the category stored with an integration, "other" when the
// provider is unknown.
func (r *Registry) AppType(name string) string {
	if p, ok := r.providers[name]; ok && p.AppType != "" {
		return p.AppType
	}
	return "other"
}

func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.providers))
}

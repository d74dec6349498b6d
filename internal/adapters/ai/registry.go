package ai

import (
	"sync"

	"graham/pkg/errors"
)

// Registry holds the configured chat providers and resolves the default one.
type Registry struct {
	mu          sync.RWMutex
	providers   map[ProviderName]ChatProvider
	defaultName ProviderName
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderName]ChatProvider),
	}
}

// Register adds a provider. The first registered provider becomes the
// default until SetDefault overrides it.
func (r *Registry) Register(name ProviderName, provider ChatProvider) error {
	if !name.IsValid() {
		return errors.Wrapf(errors.ErrInvalidInput, "provider name %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "provider %s", name)
	}

	r.providers[name] = provider
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// SetDefault selects the provider used when no explicit name is given.
func (r *Registry) SetDefault(name ProviderName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "provider %s", name)
	}
	r.defaultName = name
	return nil
}

// Get returns a registered provider by name.
func (r *Registry) Get(name ProviderName) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "provider %s", name)
	}
	return provider, nil
}

// Default returns the default provider.
func (r *Registry) Default() (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName == "" {
		return nil, errors.Wrap(errors.ErrNotFound, "no providers registered")
	}
	return r.providers[r.defaultName], nil
}

// Names lists registered provider names.
func (r *Registry) Names() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

package memory

import (
	"sync"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/config/coerce"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory. With a base store, reads fall
// through to it and writes stay local: --ephemeral runs see saved
// credentials without ever changing config.toml.
type ConfigStore struct {
	mu     sync.RWMutex
	base   driven.ConfigStore
	values map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return NewOverlayConfigStore(nil)
}

// NewOverlayConfigStore creates a store layered over base. base may be nil.
func NewOverlayConfigStore(base driven.ConfigStore) *ConfigStore {
	return &ConfigStore{base: base, values: make(map[string]any)}
}

// Get returns the local value for key, else the base value.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	val, ok := s.values[key]
	s.mu.RUnlock()
	if ok || s.base == nil {
		return val, ok
	}
	return s.base.Get(key)
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	return coerce.String(v)
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	return coerce.Int(v)
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	return coerce.Bool(v)
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	return coerce.Strings(v)
}

// Set stores a value locally. The base store is never written.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Changed lists the keys set on this store.
func (s *ConfigStore) Changed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Save is a no-op.
func (s *ConfigStore) Save() error {
	return nil
}

// Load drops local values and reloads the base store.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	s.values = make(map[string]any)
	s.mu.Unlock()
	if s.base != nil {
		return s.base.Load()
	}
	return nil
}

// Path names the store; overlays report the base path.
func (s *ConfigStore) Path() string {
	if s.base != nil {
		return s.base.Path() + " (read-only)"
	}
	return ":memory:"
}

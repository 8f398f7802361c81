package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

// Deps are shared by every adapter built from a registry.
type Deps struct {
	Transport *Transport
	Logger    *slog.Logger
}

// Factory builds an adapter.
type Factory func(deps Deps) Adapter

var builtinFactories = map[string]Factory{
	"nexmo":        NewNexmo,
	"infobip":      NewInfobip,
	"horisen":      NewHorisen,
	"cmtelecom":    NewCMTelecom,
	"silverstreet": NewSilverstreet,
	"messagebird":  NewMessagebird,
	"plivo":        NewPlivo,
	"mock":         func(deps Deps) Adapter { return NewMockAdapter(deps.Logger) },
}

// Registry maps provider module names to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	deps      Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{factories: make(map[string]Factory), deps: deps}
}

// DefaultRegistry has every built-in adapter registered.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry(deps)
	for name, f := range builtinFactories {
		r.Register(name, f)
	}
	return r
}

// Register adds or replaces the factory for a module name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Resolve returns the adapter for sp.ModuleName.
func (r *Registry) Resolve(sp *domain.ServiceProvider) (Adapter, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(sp.ModuleName))]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (provider %d)", ErrUnknownProviderModule, sp.ModuleName, sp.ID)
	}
	return f(r.deps), nil
}

// Modules lists registered module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

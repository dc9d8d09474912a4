package app

import (
	"fmt"
	"sync"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// Registry maps request contracts to handlers. Single-result contracts
// admit exactly one handler; event contracts admit any number of
// subscribers. Resolution falls back through the covariant supertype
// levels a request declares when no exact handler exists.
type Registry struct {
	mu          sync.RWMutex
	single      map[string]ports.Handler
	subscribers map[string][]ports.Handler
}

func NewRegistry() *Registry {
	return &Registry{
		single:      make(map[string]ports.Handler),
		subscribers: make(map[string][]ports.Handler),
	}
}

// Register binds a handler as the sole responder for a contract.
func (r *Registry) Register(contract string, h ports.Handler) error {
	if contract == "" {
		return fmt.Errorf("register handler: empty contract")
	}
	if h == nil {
		return fmt.Errorf("register handler for %q: nil handler", contract)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.single[contract]; ok {
		return fmt.Errorf("contract %q: %w", contract, dispatch.ErrDuplicateHandler)
	}
	r.single[contract] = h
	return nil
}

// Subscribe adds an event subscriber for a contract. Unlike Register,
// any number of subscribers may share a contract.
func (r *Registry) Subscribe(contract string, h ports.Handler) error {
	if contract == "" {
		return fmt.Errorf("subscribe handler: empty contract")
	}
	if h == nil {
		return fmt.Errorf("subscribe handler for %q: nil handler", contract)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[contract] = append(r.subscribers[contract], h)
	return nil
}

// Resolve returns the single handler for a request. An exact contract
// match always wins. Otherwise the request's covariant supertype levels
// are walked most specific first; the first level with any registered
// handler decides, and more than one handler at that level is ambiguous.
func (r *Registry) Resolve(req dispatch.Request) (ports.Handler, error) {
	contract := req.Contract()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.single[contract]; ok {
		return h, nil
	}

	if cov, ok := req.(dispatch.Covariant); ok {
		for _, level := range cov.CompatibleWith() {
			var (
				found   ports.Handler
				matched []string
			)
			for _, super := range level {
				if h, ok := r.single[super]; ok {
					found = h
					matched = append(matched, super)
				}
			}
			switch len(matched) {
			case 0:
				continue
			case 1:
				return found, nil
			default:
				return nil, fmt.Errorf("contract %q matches %v: %w",
					contract, matched, dispatch.ErrAmbiguousHandler)
			}
		}
	}

	return nil, fmt.Errorf("contract %q: %w", contract, dispatch.ErrNoHandlerFound)
}

// ResolveAll returns every subscriber that can observe the request,
// collected across the exact contract and all covariant supertypes.
// Zero subscribers is not an error for event dispatch.
func (r *Registry) ResolveAll(req dispatch.Request) []ports.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ports.Handler
	out = append(out, r.subscribers[req.Contract()]...)
	if cov, ok := req.(dispatch.Covariant); ok {
		for _, level := range cov.CompatibleWith() {
			for _, super := range level {
				out = append(out, r.subscribers[super]...)
			}
		}
	}
	return out
}

//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

import (
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-flowgraph-go/log"
)

// Factory builds a component from its node configuration.
type Factory func(config map[string]any) (Component, error)

// Registry maps component type names to factories. The zero value is not
// usable; create one with NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs a factory under the given type name. Re-registering a
// name overrides the previous factory with a warning.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		log.Warnf("component type %q is already registered, overriding", name)
	}
	r.factories[name] = factory
}

// New builds a component of the given type.
func (r *Registry) New(name string, config map[string]any) (Component, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", name)
	}
	return factory(config)
}

// Types returns the registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// defaultRegistry backs the package-level registration helpers.
var defaultRegistry = NewRegistry()

// Register installs a factory in the default registry.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Build builds a component of the given type from the default registry.
func Build(name string, config map[string]any) (Component, error) {
	return defaultRegistry.New(name, config)
}

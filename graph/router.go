//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Route is one ordered branching condition. The first route whose condition
// holds receives the packet.
type Route struct {
	// Port names the output port this route activates.
	Port string
	// When decides whether the route matches the incoming packet.
	When func(ctx context.Context, input *component.NodeData) (bool, error)
}

// Router is a branching component. It evaluates its routes in order and
// emits a selective-ports directive activating the first match; downstream
// consumers are typically wired with bypass mappings so the router forwards
// its upstream payload without re-emitting it.
type Router struct {
	name   string
	routes []Route
}

// NewRouter creates a router over the given ordered routes.
func NewRouter(name string, routes ...Route) *Router {
	return &Router{name: name, routes: routes}
}

// InputsSchema implements component.Component. Routers accept any payload.
func (r *Router) InputsSchema() *schema.Structured { return schema.NewStructured() }

// OutputsSchema implements component.Component: one untyped port per route.
func (r *Router) OutputsSchema() *schema.Structured {
	st := schema.NewStructured()
	for _, route := range r.routes {
		st.AddField(route.Port, schema.Field{Type: schema.Any()})
	}
	return st
}

// CanonicalPorts implements component.Component. A router has no canonical
// output; downstream edges must name the routed port.
func (r *Router) CanonicalPorts() component.Ports { return component.Ports{} }

// ToolDescriptions implements component.Component.
func (r *Router) ToolDescriptions() []*tool.Declaration {
	return []*tool.Declaration{{Name: r.name, Description: "routes its input to the first matching branch"}}
}

// Run implements component.Component. It raises NoMatchingRouteError when
// every condition fails.
func (r *Router) Run(ctx context.Context, input *component.NodeData) (*component.NodeData, error) {
	for _, route := range r.routes {
		ok, err := route.When(ctx, input)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out := input.Clone()
		out.Set(route.Port, wholeOrSole(input))
		out.SetDirective(component.SelectPorts(route.Port))
		return out, nil
	}
	return nil, &NoMatchingRouteError{NumRoutes: len(r.routes)}
}

// Migrated implements component.Component.
func (r *Router) Migrated() bool { return true }

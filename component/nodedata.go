//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

import "encoding/json"

// KeyDirective is the hidden data field carrying a routing directive.
const KeyDirective = "_directive"

// NodeData is the universal packet flowing along every graph edge. Data is
// the typed port payload, keyed by field name, and is validated against port
// schemas. Ctx is execution context (template variables, user metadata, file
// attachments, graph-wide scratch space); it is propagated verbatim and
// merged across nested sub-graphs.
type NodeData struct {
	Data map[string]any `json:"data"`
	Ctx  map[string]any `json:"ctx"`
}

// New creates an empty NodeData.
func New() *NodeData {
	return &NodeData{
		Data: make(map[string]any),
		Ctx:  make(map[string]any),
	}
}

// NewWithData creates a NodeData with the given payload and an empty ctx.
func NewWithData(data map[string]any) *NodeData {
	nd := New()
	for k, v := range data {
		nd.Data[k] = v
	}
	return nd
}

// Clone creates a shallow copy of the NodeData. Once a node has emitted its
// output, downstream consumers operate on clones so the emitted packet is
// never mutated.
func (nd *NodeData) Clone() *NodeData {
	clone := New()
	for k, v := range nd.Data {
		clone.Data[k] = v
	}
	for k, v := range nd.Ctx {
		clone.Ctx[k] = v
	}
	return clone
}

// MergeCtx merges the given context into the packet. Existing keys win: the
// packet's own ctx overrides the incoming one.
func (nd *NodeData) MergeCtx(ctx map[string]any) {
	for k, v := range ctx {
		if _, exists := nd.Ctx[k]; !exists {
			nd.Ctx[k] = v
		}
	}
}

// Get returns a data field.
func (nd *NodeData) Get(field string) (any, bool) {
	v, ok := nd.Data[field]
	return v, ok
}

// Set sets a data field and returns the packet for chaining.
func (nd *NodeData) Set(field string, value any) *NodeData {
	nd.Data[field] = value
	return nd
}

// Directive returns the routing directive riding on the packet, if any.
func (nd *NodeData) Directive() *Directive {
	if nd == nil {
		return nil
	}
	d, _ := nd.Data[KeyDirective].(*Directive)
	return d
}

// SetDirective attaches a routing directive to the packet.
func (nd *NodeData) SetDirective(d *Directive) *NodeData {
	nd.Data[KeyDirective] = d
	return nd
}

// MarshalJSON serializes the packet in its {data, ctx} wire form, dropping
// the hidden directive field.
func (nd *NodeData) MarshalJSON() ([]byte, error) {
	data := make(map[string]any, len(nd.Data))
	for k, v := range nd.Data {
		if k == KeyDirective {
			continue
		}
		data[k] = v
	}
	return json.Marshal(struct {
		Data map[string]any `json:"data"`
		Ctx  map[string]any `json:"ctx"`
	}{Data: data, Ctx: nd.Ctx})
}

// UnmarshalJSON deserializes the {data, ctx} wire form.
func (nd *NodeData) UnmarshalJSON(bts []byte) error {
	var wire struct {
		Data map[string]any `json:"data"`
		Ctx  map[string]any `json:"ctx"`
	}
	if err := json.Unmarshal(bts, &wire); err != nil {
		return err
	}
	nd.Data = wire.Data
	if nd.Data == nil {
		nd.Data = make(map[string]any)
	}
	nd.Ctx = wire.Ctx
	if nd.Ctx == nil {
		nd.Ctx = make(map[string]any)
	}
	return nil
}

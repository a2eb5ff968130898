//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

// Strategy selects how the scheduler treats a node's downstream edges.
type Strategy string

// Directive strategies.
const (
	// StrategyNormal activates every downstream consumer.
	StrategyNormal Strategy = "normal"
	// StrategySelectivePorts activates only consumers wired to a selected port.
	StrategySelectivePorts Strategy = "selective_ports"
	// StrategyHaltAll halts every descendant.
	StrategyHaltAll Strategy = "halt_all"
)

// Directive is the hidden routing instruction a component may attach to its
// output. Routers and if/else branches emit selective-port directives instead
// of rewriting the graph.
type Directive struct {
	// Strategy selects the routing behavior.
	Strategy Strategy `json:"strategy"`
	// SelectedPorts names the activated output ports. Meaningful only for
	// StrategySelectivePorts.
	SelectedPorts []string `json:"selected_ports,omitempty"`
}

// SelectPorts returns a directive activating only the named output ports.
func SelectPorts(ports ...string) *Directive {
	return &Directive{Strategy: StrategySelectivePorts, SelectedPorts: ports}
}

// HaltAll returns a directive halting every descendant.
func HaltAll() *Directive {
	return &Directive{Strategy: StrategyHaltAll}
}

// Selects reports whether the directive activates the given port.
func (d *Directive) Selects(port string) bool {
	if d == nil || d.Strategy == StrategyNormal {
		return true
	}
	if d.Strategy == StrategyHaltAll {
		return false
	}
	for _, p := range d.SelectedPorts {
		if p == port {
			return true
		}
	}
	return false
}

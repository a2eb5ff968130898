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
	"fmt"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/event"
	"trpc.group/trpc-go/trpc-flowgraph-go/log"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/telemetry"
)

// defaultMaxConcurrency bounds the worker pool when no option is given.
const defaultMaxConcurrency = 32

// Executor schedules a resolved Graph. It owns a worker pool shared across
// runs; concurrent Execute calls are safe as long as the graph's components
// are.
type Executor struct {
	graph *Graph
	pool  *ants.Pool
}

// ExecOption configures an Executor.
type ExecOption func(*execOptions)

type execOptions struct {
	maxConcurrency int
}

// WithMaxConcurrency bounds the number of nodes running at once.
func WithMaxConcurrency(n int) ExecOption {
	return func(o *execOptions) { o.maxConcurrency = n }
}

// NewExecutor creates an executor for the graph.
func NewExecutor(g *Graph, opt ...ExecOption) (*Executor, error) {
	opts := execOptions{maxConcurrency: defaultMaxConcurrency}
	for _, o := range opt {
		o(&opts)
	}
	pool, err := ants.NewPool(opts.maxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Executor{graph: g, pool: pool}, nil
}

// Close releases the worker pool and disposes graph components.
func (e *Executor) Close() error {
	e.pool.Release()
	return e.graph.Close()
}

// Execute runs the graph against the starting packet and returns the
// terminal output. With several completed terminals the result's data maps
// each terminal node id to its output data.
func (e *Executor) Execute(ctx context.Context, input *component.NodeData) (*component.NodeData, error) {
	return e.execute(ctx, input, nil)
}

// ExecuteStream runs the graph and yields execution events as nodes start,
// complete, halt or fail. The channel is closed when the run finishes; the
// final graph-level event carries the output or the error.
func (e *Executor) ExecuteStream(ctx context.Context, input *component.NodeData) (<-chan *event.Event, error) {
	if input == nil {
		return nil, fmt.Errorf("nil input")
	}
	events := make(chan *event.Event, 64)
	go func() {
		defer close(events)
		_, _ = e.execute(ctx, input, events)
	}()
	return events, nil
}

// completion is one node's result delivered back to the scheduling loop.
type completion struct {
	id     string
	output *component.NodeData
	err    error
}

// runState tracks one execution of the graph.
type runState struct {
	id        string
	outputs   map[string]*component.NodeData
	inputs    map[string]*component.NodeData
	halted    map[string]bool
	remaining map[string]int
	events    chan<- *event.Event
}

func (r *runState) emit(kind event.Kind, opts ...event.Option) {
	if r.events == nil {
		return
	}
	r.events <- event.New(r.id, kind, opts...)
}

func (e *Executor) execute(ctx context.Context, input *component.NodeData,
	events chan<- *event.Event) (*component.NodeData, error) {
	if input == nil {
		return nil, fmt.Errorf("nil input")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &runState{
		id:        uuid.New().String(),
		outputs:   make(map[string]*component.NodeData),
		inputs:    make(map[string]*component.NodeData),
		halted:    make(map[string]bool),
		remaining: make(map[string]int),
		events:    events,
	}
	for _, id := range e.graph.order {
		r.remaining[id] = len(e.graph.preds[id])
	}
	telemetry.Add(ctx, telemetry.GraphRunCounter, 1)
	r.emit(event.KindGraphStarted)

	// Each node completes at most once, so a buffer of one slot per node
	// guarantees workers never block on the send. Without it a ready set
	// larger than the pool deadlocks: Submit waits for a free worker while
	// every worker waits on the unread channel.
	done := make(chan completion, len(e.graph.order))
	running := 0
	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	dispatch := func(id string, in *component.NodeData) {
		r.inputs[id] = in
		r.emit(event.KindNodeStarted, event.WithNode(id))
		node := e.graph.nodes[id]
		if err := e.pool.Submit(func() {
			out, err := node.wrapper.Invoke(ctx, in)
			done <- completion{id: id, output: out, err: err}
		}); err != nil {
			fail(fmt.Errorf("dispatch node %q: %w", id, err))
			return
		}
		running++
	}

	// handleReady and haltNode recurse through halted chains; the graph is
	// acyclic so this terminates.
	var handleReady func(id string)
	var haltNode func(id string)
	haltNode = func(id string) {
		if r.halted[id] {
			return
		}
		r.halted[id] = true
		r.emit(event.KindNodeHalted, event.WithNode(id))
		log.Debugf("node %q halted", id)
		for _, succ := range e.graph.succs[id] {
			r.remaining[succ]--
			if r.remaining[succ] == 0 {
				handleReady(succ)
			}
		}
	}
	handleReady = func(id string) {
		in, halted, err := e.assemble(id, r)
		if err != nil {
			fail(err)
			return
		}
		if halted {
			haltNode(id)
			return
		}
		dispatch(id, in)
	}

	for _, id := range e.graph.startNodes {
		if firstErr != nil {
			break
		}
		dispatch(id, input.Clone())
	}

	for running > 0 {
		c := <-done
		running--
		if c.err != nil {
			r.emit(event.KindNodeFailed, event.WithNode(c.id), event.WithError(c.err))
			fail(fmt.Errorf("node %q: %w", c.id, c.err))
			continue
		}
		if firstErr != nil {
			continue // draining cancelled siblings
		}
		r.outputs[c.id] = c.output
		r.emit(event.KindNodeCompleted, event.WithNode(c.id), event.WithOutput(c.output))
		for _, succ := range e.graph.succs[c.id] {
			if firstErr != nil {
				break
			}
			r.remaining[succ]--
			if r.remaining[succ] == 0 {
				handleReady(succ)
			}
		}
	}
	if firstErr != nil {
		r.emit(event.KindGraphFailed, event.WithError(firstErr))
		return nil, firstErr
	}
	out := e.mergeTerminals(r)
	r.emit(event.KindGraphCompleted, event.WithOutput(out))
	return out, nil
}

// assemble materializes a ready node's input from its inbound mapping table.
// It reports halted=true when every inbound edge was halted or deselected.
func (e *Executor) assemble(id string, r *runState) (*component.NodeData, bool, error) {
	mappings := e.graph.resolved[id]
	if len(mappings) == 0 {
		// Only entry nodes lack mappings, and those never reach assemble.
		return component.New(), false, nil
	}
	in := component.New()
	active := 0
	for _, m := range mappings {
		if r.halted[m.source] {
			continue
		}
		out, ok := r.outputs[m.source]
		if !ok || !out.Directive().Selects(m.sourcePort) {
			continue
		}
		active++
		value, present := e.sourceValue(m, out, r)
		if present {
			coerced, err := schema.Coerce(m.sourceType, m.targetType, value)
			if err != nil {
				return nil, false, e.nameCoercion(err, id)
			}
			if m.targetPort == "" {
				mergeData(in, coerced)
			} else {
				in.Data[m.targetPort] = coerced
			}
		}
		in.MergeCtx(out.Ctx)
	}
	if active == 0 {
		return nil, true, nil
	}
	return in, false, nil
}

// sourceValue locates the value a mapping forwards. Direct and function-call
// mappings read the source's emitted output; bypass reads the source's own
// upstream input. Empty ports select the whole data payload; a halted or
// absent port contributes nothing.
func (e *Executor) sourceValue(m resolvedMapping, out *component.NodeData,
	r *runState) (any, bool) {
	if m.strategy == MappingBypass {
		upstream := r.inputs[m.source]
		if upstream == nil {
			return nil, false
		}
		return wholeOrSole(upstream), true
	}
	if m.sourcePort == "" {
		return wholeOrSole(out), true
	}
	v, ok := out.Data[m.sourcePort]
	return v, ok
}

// wholeOrSole lowers a packet to a forwardable value: the sole data field if
// there is exactly one, otherwise the whole data map.
func wholeOrSole(nd *component.NodeData) any {
	var sole any
	n := 0
	for k, v := range nd.Data {
		if k == component.KeyDirective {
			continue
		}
		sole = v
		n++
	}
	if n == 1 {
		return sole
	}
	data := make(map[string]any, n)
	for k, v := range nd.Data {
		if k == component.KeyDirective {
			continue
		}
		data[k] = v
	}
	return data
}

// mergeData folds a whole-payload value into the input packet.
func mergeData(in *component.NodeData, value any) {
	if m, ok := value.(map[string]any); ok {
		for k, v := range m {
			in.Data[k] = v
		}
		return
	}
	in.Data["input"] = value
}

func (e *Executor) nameCoercion(err error, node string) error {
	if ce, ok := err.(*schema.CoercionError); ok && ce.Component == "" {
		ce.Component = node
	}
	return err
}

// mergeTerminals builds the run result: a unique completed terminal's output
// as-is, otherwise a map of terminal node id to output data.
func (e *Executor) mergeTerminals(r *runState) *component.NodeData {
	var completed []string
	for _, id := range e.graph.terminals {
		if _, ok := r.outputs[id]; ok {
			completed = append(completed, id)
		}
	}
	if len(completed) == 1 {
		return r.outputs[completed[0]]
	}
	merged := component.New()
	for _, id := range completed {
		out := r.outputs[id]
		data := make(map[string]any, len(out.Data))
		for k, v := range out.Data {
			if k == component.KeyDirective {
				continue
			}
			data[k] = v
		}
		merged.Data[id] = data
		merged.MergeCtx(out.Ctx)
	}
	return merged
}

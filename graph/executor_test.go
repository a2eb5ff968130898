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
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/event"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
)

func prefix(tag string) func(string) string {
	return func(s string) string { return fmt.Sprintf("[%s] %s", tag, s) }
}

func mustExecutor(t *testing.T, g *Graph) *Executor {
	t.Helper()
	ex, err := NewExecutor(g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func TestExecuteLinearChain(t *testing.T) {
	g, err := NewBuilder().
		AddNode("a", textComp("a", prefix("A"))).
		AddNode("b", textComp("b", prefix("B"))).
		AddNode("c", textComp("c", prefix("C"))).
		AddEdge("a", "b").
		AddEdge("b", "c").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	in := component.NewWithData(map[string]any{"text": "Hello"})
	in.Ctx["user"] = "u1"

	out, err := ex.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "[C] [B] [A] Hello", out.Data["text"])
	assert.Equal(t, "u1", out.Ctx["user"], "ctx flows edge to edge")
}

func TestExecuteDiamondMerge(t *testing.T) {
	joinInputs := schema.NewStructured().
		AddField("left", schema.Field{Type: schema.String(), Required: true}).
		AddField("right", schema.Field{Type: schema.String(), Required: true})
	join := component.NewFunc("join", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		out := component.New()
		out.Ctx = in.Ctx
		out.Set("text", fmt.Sprintf("%s | %s", in.Data["left"], in.Data["right"]))
		return out, nil
	}, component.WithInputs(joinInputs))

	g, err := NewBuilder().
		AddNode("a", textComp("a", func(s string) string { return s })).
		AddNode("b", textComp("b", prefix("B"))).
		AddNode("c", textComp("c", prefix("C"))).
		AddNode("join", join).
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddMapping(Mapping{Source: "b", SourcePort: "text", Target: "join", TargetPort: "left"}).
		AddMapping(Mapping{Source: "c", SourcePort: "text", Target: "join", TargetPort: "right"}).
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	out, err := ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "q"}))
	require.NoError(t, err)
	assert.Equal(t, "[B] q | [C] q", out.Data["text"])
}

func TestExecuteRoutedBranch(t *testing.T) {
	var branchARuns, branchBRuns, afterARuns atomic.Int32

	counted := func(name string, counter *atomic.Int32, tag string) component.Component {
		inputs := schema.NewStructured().
			AddField("text", schema.Field{Type: schema.String(), Required: true})
		return component.NewFunc(name, func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
			counter.Add(1)
			out := component.New()
			out.Ctx = in.Ctx
			out.Set("text", prefix(tag)(in.Data["text"].(string)))
			return out, nil
		}, component.WithInputs(inputs))
	}

	router := NewRouter("router",
		Route{Port: "yes", When: func(_ context.Context, in *component.NodeData) (bool, error) {
			s, _ := wholeOrSole(in).(string)
			return s == "approve", nil
		}},
		Route{Port: "no", When: func(_ context.Context, _ *component.NodeData) (bool, error) {
			return true, nil
		}},
	)

	g, err := NewBuilder().
		AddNode("entry", textComp("entry", func(s string) string { return s })).
		AddNode("router", router).
		AddNode("branch_a", counted("branch_a", &branchARuns, "A")).
		AddNode("branch_b", counted("branch_b", &branchBRuns, "B")).
		AddNode("after_a", counted("after_a", &afterARuns, "AA")).
		AddEdge("entry", "router").
		AddMapping(Mapping{Source: "router", SourcePort: "yes", Target: "branch_a", TargetPort: "text", Strategy: MappingBypass}).
		AddMapping(Mapping{Source: "router", SourcePort: "no", Target: "branch_b", TargetPort: "text"}).
		AddEdge("branch_a", "after_a").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	out, err := ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "reject"}))
	require.NoError(t, err)

	assert.Equal(t, "[B] reject", out.Data["text"])
	assert.Equal(t, int32(0), branchARuns.Load(), "deselected branch never runs")
	assert.Equal(t, int32(0), afterARuns.Load(), "halt propagates through the chain")
	assert.Equal(t, int32(1), branchBRuns.Load())

	// The other condition takes the bypass branch, forwarding the router's
	// own upstream input.
	out, err = ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "approve"}))
	require.NoError(t, err)
	assert.Equal(t, "[AA] [A] approve", out.Data["text"])
	assert.Equal(t, int32(1), branchARuns.Load())
}

func TestExecuteRouterNoMatch(t *testing.T) {
	router := NewRouter("router",
		Route{Port: "only", When: func(_ context.Context, _ *component.NodeData) (bool, error) {
			return false, nil
		}},
	)
	g, err := NewBuilder().
		AddNode("router", router).
		AddNode("sink", textComp("sink", prefix("S"))).
		AddMapping(Mapping{Source: "router", SourcePort: "only", Target: "sink", TargetPort: "text"}).
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	_, err = ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "x"}))
	require.Error(t, err)
	var nm *NoMatchingRouteError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, 1, nm.NumRoutes)
}

func TestExecuteHaltAll(t *testing.T) {
	outputs := schema.NewStructured().
		AddField("text", schema.Field{Type: schema.String(), Nullable: true})
	halter := component.NewFunc("halter", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		out := component.New()
		out.Ctx = in.Ctx
		out.Set("text", "never seen")
		out.SetDirective(component.HaltAll())
		return out, nil
	}, component.WithOutputs(outputs))

	var downstreamRuns atomic.Int32
	downstream := component.NewFunc("downstream", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		downstreamRuns.Add(1)
		return in, nil
	})

	g, err := NewBuilder().
		AddNode("halter", halter).
		AddNode("b", downstream).
		AddNode("c", downstream).
		AddEdge("halter", "b").
		AddEdge("b", "c").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	out, err := ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "go"}))
	require.NoError(t, err)
	assert.Equal(t, int32(0), downstreamRuns.Load())
	assert.Empty(t, out.Data, "no terminal completed")
}

func TestExecuteMultiTerminalMerge(t *testing.T) {
	g, err := NewBuilder().
		AddNode("a", textComp("a", func(s string) string { return s })).
		AddNode("b", textComp("b", prefix("B"))).
		AddNode("c", textComp("c", prefix("C"))).
		AddEdge("a", "b").
		AddEdge("a", "c").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	out, err := ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "q"}))
	require.NoError(t, err)

	bData, ok := out.Data["b"].(map[string]any)
	require.True(t, ok, "multiple terminals key the result by node id")
	assert.Equal(t, "[B] q", bData["text"])
	cData := out.Data["c"].(map[string]any)
	assert.Equal(t, "[C] q", cData["text"])
}

func TestExecuteWideReadySetWithSmallPool(t *testing.T) {
	joinInputs := schema.NewStructured().
		AddField("one", schema.Field{Type: schema.String(), Required: true}).
		AddField("two", schema.Field{Type: schema.String(), Required: true}).
		AddField("three", schema.Field{Type: schema.String(), Required: true})
	join := component.NewFunc("join", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		out := component.New()
		out.Set("text", fmt.Sprintf("%s %s %s", in.Data["one"], in.Data["two"], in.Data["three"]))
		return out, nil
	}, component.WithInputs(joinInputs))

	// Three independent entry nodes all become ready at once; a pool of one
	// worker must still drain them.
	g, err := NewBuilder().
		AddNode("a", textComp("a", prefix("A"))).
		AddNode("b", textComp("b", prefix("B"))).
		AddNode("c", textComp("c", prefix("C"))).
		AddNode("join", join).
		AddMapping(Mapping{Source: "a", SourcePort: "text", Target: "join", TargetPort: "one"}).
		AddMapping(Mapping{Source: "b", SourcePort: "text", Target: "join", TargetPort: "two"}).
		AddMapping(Mapping{Source: "c", SourcePort: "text", Target: "join", TargetPort: "three"}).
		Build()
	require.NoError(t, err)

	ex, err := NewExecutor(g, WithMaxConcurrency(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ex.Close() })

	type result struct {
		out *component.NodeData
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "x"}))
		done <- result{out, err}
	}()
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "[A] x [B] x [C] x", r.out.Data["text"])
	case <-time.After(5 * time.Second):
		t.Fatal("execution did not finish with a pool smaller than the ready set")
	}
}

func TestExecuteSubGraph(t *testing.T) {
	inner, err := NewBuilder().
		AddNode("x", textComp("x", prefix("X"))).
		AddNode("y", textComp("y", prefix("Y"))).
		AddEdge("x", "y").
		Build()
	require.NoError(t, err)
	innerEx, err := NewExecutor(inner)
	require.NoError(t, err)

	g, err := NewBuilder().
		AddNode("pre", textComp("pre", prefix("PRE"))).
		AddNode("sub", NewRunnerBlock("sub", innerEx)).
		AddNode("post", textComp("post", prefix("POST"))).
		AddMapping(Mapping{Source: "pre", SourcePort: "text", Target: "sub", TargetPort: "text"}).
		AddEdge("sub", "post").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g) // closing the outer graph disposes the inner executor
	in := component.NewWithData(map[string]any{"text": "hi"})
	in.Ctx["tenant"] = "t1"
	out, err := ex.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "[POST] [Y] [X] [PRE] hi", out.Data["text"])
	assert.Equal(t, "t1", out.Ctx["tenant"], "ctx crosses the sub-graph boundary")
}

func TestExecuteNodeFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := component.NewFunc("failing", func(_ context.Context, _ *component.NodeData) (*component.NodeData, error) {
		return nil, boom
	})

	g, err := NewBuilder().
		AddNode("a", textComp("a", prefix("A"))).
		AddNode("fail", failing).
		AddEdge("a", "fail").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	_, err = ex.Execute(context.Background(), component.NewWithData(map[string]any{"text": "x"}))
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `node "fail"`)
}

func TestExecuteStream(t *testing.T) {
	g, err := NewBuilder().
		AddNode("a", textComp("a", prefix("A"))).
		AddNode("b", textComp("b", prefix("B"))).
		AddEdge("a", "b").
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	events, err := ex.ExecuteStream(context.Background(), component.NewWithData(map[string]any{"text": "s"}))
	require.NoError(t, err)

	var collected []*event.Event
	for ev := range events {
		collected = append(collected, ev)
	}
	require.NotEmpty(t, collected)
	assert.Equal(t, event.KindGraphStarted, collected[0].Kind)

	last := collected[len(collected)-1]
	assert.Equal(t, event.KindGraphCompleted, last.Kind)
	require.NotNil(t, last.Output)
	assert.Equal(t, "[B] [A] s", last.Output.Data["text"])

	kinds := make(map[event.Kind]int)
	runIDs := make(map[string]bool)
	for _, ev := range collected {
		kinds[ev.Kind]++
		runIDs[ev.RunID] = true
	}
	assert.Equal(t, 2, kinds[event.KindNodeStarted])
	assert.Equal(t, 2, kinds[event.KindNodeCompleted])
	assert.Len(t, runIDs, 1, "all events share the run id")
}

func TestExecuteStreamFailure(t *testing.T) {
	failing := component.NewFunc("failing", func(_ context.Context, _ *component.NodeData) (*component.NodeData, error) {
		return nil, errors.New("boom")
	})
	g, err := NewBuilder().AddNode("fail", failing).Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	events, err := ex.ExecuteStream(context.Background(), component.New())
	require.NoError(t, err)

	var last *event.Event
	for ev := range events {
		last = ev
	}
	require.NotNil(t, last)
	assert.Equal(t, event.KindGraphFailed, last.Kind)
	assert.Contains(t, last.Error, "boom")
}

func TestExecuteNilInput(t *testing.T) {
	g, err := NewBuilder().
		AddNode("a", textComp("a", prefix("A"))).
		Build()
	require.NoError(t, err)

	ex := mustExecutor(t, g)
	_, err = ex.Execute(context.Background(), nil)
	require.Error(t, err)
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
)

// textComp is a single-port string transformer used across the graph tests.
func textComp(name string, transform func(string) string) component.Component {
	inputs := schema.NewStructured().
		AddField("text", schema.Field{Type: schema.String(), Required: true})
	outputs := schema.NewStructured().
		AddField("text", schema.Field{Type: schema.String(), Required: true})
	return component.NewFunc(name, func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		s, _ := in.Data["text"].(string)
		out := component.New()
		out.Ctx = in.Ctx
		out.Set("text", transform(s))
		return out, nil
	}, WithPorts(inputs, outputs))
}

// WithPorts bundles the two schema options for brevity in tests.
func WithPorts(inputs, outputs *schema.Structured) component.FuncOption {
	return func(f *component.Func) {
		component.WithInputs(inputs)(f)
		component.WithOutputs(outputs)(f)
	}
}

// typedComp declares one output port of the given type and no inputs.
func typedComp(name, port string, t schema.Type) component.Component {
	outputs := schema.NewStructured().AddField(port, schema.Field{Type: t})
	return component.NewFunc(name, func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		return in, nil
	}, component.WithOutputs(outputs))
}

// sinkComp declares one input port of the given type and no outputs.
func sinkComp(name, port string, t schema.Type) component.Component {
	inputs := schema.NewStructured().AddField(port, schema.Field{Type: t})
	return component.NewFunc(name, func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
		return component.New(), nil
	}, component.WithInputs(inputs))
}

func TestBuildRejectsCycle(t *testing.T) {
	identity := func(s string) string { return s }

	t.Run("two node loop", func(t *testing.T) {
		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddEdge("a", "b").
			AddEdge("b", "a").
			Build()
		require.ErrorIs(t, err, ErrCycle)
		assert.Equal(t, "Graph contains cycles", err.Error())
	})

	t.Run("self loop", func(t *testing.T) {
		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddEdge("a", "a").
			Build()
		require.ErrorIs(t, err, ErrCycle)
	})

	t.Run("cycle behind a valid prefix", func(t *testing.T) {
		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddNode("c", textComp("c", identity)).
			AddNode("d", textComp("d", identity)).
			AddEdge("a", "b").
			AddEdge("b", "c").
			AddEdge("c", "d").
			AddEdge("d", "b").
			Build()
		require.ErrorIs(t, err, ErrCycle)
	})
}

func TestBuildRejectsBadNodes(t *testing.T) {
	identity := func(s string) string { return s }

	_, err := NewBuilder().AddNode("a", nil).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "a" has no runnable`)

	_, err = NewBuilder().
		AddNode("a", textComp("a", identity)).
		AddNode("a", textComp("a2", identity)).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "a" is already defined`)

	_, err = NewBuilder().
		AddNode("a", textComp("a", identity)).
		AddEdge("a", "ghost").
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "ghost"`)
}

func TestBuildCoverage(t *testing.T) {
	identity := func(s string) string { return s }
	merge := func() component.Component {
		inputs := schema.NewStructured().
			AddField("left", schema.Field{Type: schema.String()}).
			AddField("right", schema.Field{Type: schema.String()})
		return component.NewFunc("merge", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
			return in, nil
		}, component.WithInputs(inputs))
	}

	t.Run("merge node without mappings is rejected", func(t *testing.T) {
		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddNode("m", merge()).
			AddEdge("a", "m").
			AddEdge("b", "m").
			Build()
		require.Error(t, err)
		var cov *CoverageError
		require.ErrorAs(t, err, &cov)
		assert.Equal(t, "m", cov.Node)
		assert.ElementsMatch(t, []string{"a", "b"}, cov.Missing)
		assert.Contains(t, err.Error(), "has multiple incoming connections and no explicit mapping")
	})

	t.Run("partial coverage names only the uncovered source", func(t *testing.T) {
		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddNode("m", merge()).
			AddMapping(Mapping{Source: "a", SourcePort: "text", Target: "m", TargetPort: "left"}).
			AddEdge("b", "m").
			Build()
		var cov *CoverageError
		require.ErrorAs(t, err, &cov)
		assert.Equal(t, []string{"b"}, cov.Missing)
	})

	t.Run("full coverage builds", func(t *testing.T) {
		g, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddNode("m", merge()).
			AddMapping(Mapping{Source: "a", SourcePort: "text", Target: "m", TargetPort: "left"}).
			AddMapping(Mapping{Source: "b", SourcePort: "text", Target: "m", TargetPort: "right"}).
			Build()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, g.StartNodes())
	})
}

func TestBuildValidatesPorts(t *testing.T) {
	identity := func(s string) string { return s }

	_, err := NewBuilder().
		AddNode("a", textComp("a", identity)).
		AddNode("b", textComp("b", identity)).
		AddMapping(Mapping{Source: "a", SourcePort: "ghost", Target: "b", TargetPort: "text"}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown port "ghost" on node "a"`)

	_, err = NewBuilder().
		AddNode("a", textComp("a", identity)).
		AddNode("b", textComp("b", identity)).
		AddMapping(Mapping{Source: "a", SourcePort: "text", Target: "b", TargetPort: "ghost"}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown port "ghost" on node "b"`)
}

func TestBuildChecksCoercion(t *testing.T) {
	_, err := NewBuilder().
		AddNode("flagger", typedComp("flagger", "flag", schema.Bool())).
		AddNode("counter", sinkComp("counter", "num", schema.Int())).
		AddMapping(Mapping{Source: "flagger", SourcePort: "flag", Target: "counter", TargetPort: "num"}).
		Build()
	require.Error(t, err)
	var bce *BuildCoercionError
	require.ErrorAs(t, err, &bce)
	assert.Contains(t, err.Error(), "Cannot coerce flagger.flag to counter.num")
}

func TestBuildSynthesizesMappings(t *testing.T) {
	identity := func(s string) string { return s }

	t.Run("sole field fallback", func(t *testing.T) {
		g, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddEdge("a", "b").
			Build()
		require.NoError(t, err)
		require.NotNil(t, g)
	})

	t.Run("ambiguous target is rejected", func(t *testing.T) {
		inputs := schema.NewStructured().
			AddField("x", schema.Field{Type: schema.String()}).
			AddField("y", schema.Field{Type: schema.String()})
		wide := component.NewFunc("wide", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
			return in, nil
		}, component.WithInputs(inputs))

		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("wide", wide).
			AddEdge("a", "wide").
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no canonical or sole input port")
	})

	t.Run("canonical ports win over ambiguity", func(t *testing.T) {
		inputs := schema.NewStructured().
			AddField("x", schema.Field{Type: schema.String()}).
			AddField("y", schema.Field{Type: schema.String()})
		wide := component.NewFunc("wide", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
			return in, nil
		}, component.WithInputs(inputs), component.WithCanonicalPorts("x", ""))

		_, err := NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("wide", wide).
			AddEdge("a", "wide").
			Build()
		require.NoError(t, err)
	})
}

func TestBuildStartOrder(t *testing.T) {
	identity := func(s string) string { return s }
	twoEntries := func() *Builder {
		merge := component.NewFunc("m", func(_ context.Context, in *component.NodeData) (*component.NodeData, error) {
			return in, nil
		})
		return NewBuilder().
			AddNode("a", textComp("a", identity)).
			AddNode("b", textComp("b", identity)).
			AddNode("m", merge).
			AddMapping(Mapping{Source: "a", SourcePort: "text", Target: "m"}).
			AddMapping(Mapping{Source: "b", SourcePort: "text", Target: "m"})
	}

	t.Run("explicit order", func(t *testing.T) {
		g, err := twoEntries().SetStartOrder("b", "a").Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, g.StartNodes())
	})

	t.Run("non entry node rejected", func(t *testing.T) {
		_, err := twoEntries().SetStartOrder("m", "a").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `start node "m" is not an entry node`)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		_, err := twoEntries().SetStartOrder("a", "a").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate start node "a"`)
	})

	t.Run("incomplete rejected", func(t *testing.T) {
		_, err := twoEntries().SetStartOrder("a").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), fmt.Sprintf("start ordering names %d of %d entry nodes", 1, 2))
	})
}

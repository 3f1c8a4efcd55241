package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/engine"
	"go.flow.arcalot.io/nodegraph/graph"
	"go.flow.arcalot.io/nodegraph/toposort"
)

func newInterface(name string, value any) func() *graph.NodeInterface {
	return func() *graph.NodeInterface {
		return graph.NewInterface(name, value)
	}
}

// constantNode outputs the value of its non-port input.
var constantNode = graph.NodeDefinition{
	Type:  "constant",
	Title: "Constant",
	Inputs: []graph.InterfaceDefinition{
		{Key: "value", New: func() *graph.NodeInterface { return graph.NewInterface("Value", 0).WithPort(false) }},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "out", New: newInterface("Out", nil)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		return map[string]any{"out": inputs["value"]}, nil
	},
}

// addOneNode outputs its input plus one.
var addOneNode = graph.NodeDefinition{
	Type:  "add-one",
	Title: "Add one",
	Inputs: []graph.InterfaceDefinition{
		{Key: "in", New: newInterface("In", 0)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "out", New: newInterface("Out", nil)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		value, ok := inputs["in"].(int)
		if !ok {
			return nil, fmt.Errorf("expected an int, got %T", inputs["in"])
		}
		return map[string]any{"out": value + 1}, nil
	},
}

// collectNode outputs every value connected to its multi-connection input.
var collectNode = graph.NodeDefinition{
	Type: "collect",
	Inputs: []graph.InterfaceDefinition{
		{Key: "in", New: func() *graph.NodeInterface {
			return graph.NewInterface("In", nil).WithMultipleConnections(true)
		}},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "out", New: newInterface("Out", nil)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		return map[string]any{"out": inputs["in"]}, nil
	},
}

// pairNode outputs both of its inputs.
var pairNode = graph.NodeDefinition{
	Type: "pair",
	Inputs: []graph.InterfaceDefinition{
		{Key: "x", New: newInterface("X", 0)},
		{Key: "y", New: newInterface("Y", 0)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "out", New: newInterface("Out", nil)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		return map[string]any{"out": []any{inputs["x"], inputs["y"]}}, nil
	},
}

func newTestEditor(t *testing.T) *graph.Editor {
	editor := assert.NoErrorR[*graph.Editor](t)(graph.NewEditor(log.NewTestLogger(t)))
	for _, definition := range []graph.NodeDefinition{constantNode, addOneNode, collectNode, pairNode} {
		editor.RegisterNodeType(definition.Factory(), graph.NodeTypeOptions{Category: "test"})
	}
	return editor
}

func newConstant(g *graph.Graph, value any) graph.Node {
	n := g.AddNode(constantNode.New())
	n.Inputs().Get("value").SetValue(value)
	return n
}

func connect(t *testing.T, g *graph.Graph, from graph.Node, fromKey string, to graph.Node, toKey string) *graph.Connection {
	t.Helper()
	c := g.AddConnection(from.Outputs().Get(fromKey), to.Inputs().Get(toKey))
	if c == nil {
		t.Fatalf("failed to connect %s.%s to %s.%s", from.Type(), fromKey, to.Type(), toKey)
	}
	return c
}

func TestNewEngineValidation(t *testing.T) {
	editor := newTestEditor(t)
	_, err := engine.NewDependencyEngine(nil, log.NewTestLogger(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bug: no editor")
	_, err = engine.NewForwardEngine(editor, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bug: no logger")
}

func TestDependencyEngine_RunOnce(t *testing.T) {
	editor := newTestEditor(t)
	sorts := 0
	spy := func(nodes []graph.Node, connections []*graph.Connection) (*toposort.Result, error) {
		sorts++
		return toposort.Sort(nodes, connections)
	}
	e := assert.NoErrorR[*engine.DependencyEngine](t)(
		engine.NewDependencyEngine(editor, log.NewTestLogger(t), engine.WithSorter(spy)),
	)
	g := editor.Graph()
	a := newConstant(g, 5)
	b := g.AddNode(addOneNode.New())
	connect(t, g, a, "out", b, "in")

	result := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	value, ok := result.Get(b.ID(), "out")
	assert.Equals(t, ok, true)
	assert.Equals(t, value, any(6))
	assert.Equals(t, sorts, 1)

	again := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	value, _ = again.Get(b.ID(), "out")
	assert.Equals(t, value, any(6))
	assert.Equals(t, sorts, 1)

	// A structural change makes the next run sort again.
	g.AddNode(addOneNode.New())
	_, err := e.RunOnce(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equals(t, sorts, 2)
}

func TestDependencyEngine_SingleInputPropagation(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	n1 := newConstant(g, 0)
	n2 := g.AddNode(pairNode.New())
	connect(t, g, n1, "out", n2, "x")

	n1.Inputs().Get("value").SetValue(2)
	result := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	out, _ := result.Get(n2.ID(), "out")
	// x is fed by n1, y keeps its own value.
	assert.Equals(t, out, any([]any{2, 0}))
}

func TestDependencyEngine_MultipleConnections(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	collect := g.AddNode(collectNode.New())
	a := newConstant(g, 1)
	b := newConstant(g, 2)
	connect(t, g, b, "out", collect, "in")
	connect(t, g, a, "out", collect, "in")

	result := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	out, _ := result.Get(collect.ID(), "out")
	// Values follow the calculation order of the sources, not the connection order.
	order := assert.NoErrorR[*toposort.Result](t)(toposort.SortGraph(g))
	var expected []any
	for _, n := range order.CalculationOrder {
		if n == a {
			expected = append(expected, 1)
		}
		if n == b {
			expected = append(expected, 2)
		}
	}
	assert.Equals(t, out, any(expected))
}

func TestDependencyEngine_InvalidOutput(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	broken := graph.NodeDefinition{
		Type:    "broken",
		Outputs: []graph.InterfaceDefinition{{Key: "result", New: newInterface("Result", nil)}},
		Calculate: func(_ context.Context, _ map[string]any, _ graph.CalculationContext) (map[string]any, error) {
			return map[string]any{"other": 1}, nil
		},
	}.New()
	editor.Graph().AddNode(broken)

	_, err := e.RunOnce(context.Background(), nil)
	assert.Error(t, err)
	var invalid *engine.ErrInvalidNodeOutput
	assert.Equals(t, errors.As(err, &invalid), true)
	assert.Equals(t, invalid.NodeID, broken.ID())
	assert.Contains(t, err.Error(), broken.ID())
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "result")
}

func TestDependencyEngine_CalculationError(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, "not a number")
	b := g.AddNode(addOneNode.New())
	connect(t, g, a, "out", b, "in")

	_, err := e.RunOnce(context.Background(), nil)
	assert.Error(t, err)
	var failed *engine.ErrNodeCalculationFailed
	assert.Equals(t, errors.As(err, &failed), true)
	assert.Equals(t, failed.NodeID, b.ID())
	assert.Equals(t, e.Status(), engine.StatusStopped)
}

func TestDependencyEngine_TransferDataHook(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 5)
	b := g.AddNode(addOneNode.New())
	connect(t, g, a, "out", b, "in")
	e.Hooks().TransferData.Subscribe("double", func(data engine.Transfer) engine.Transfer {
		data.Value = data.Value.(int) * 2
		return data
	})

	result := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	out, _ := result.Get(b.ID(), "out")
	assert.Equals(t, out, any(11))
}

func TestBaseEngine_BeforeRunPrevented(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	newConstant(editor.Graph(), 1)
	afterRun := 0
	e.Events().AfterRun.Subscribe("test", func(engine.RunResult) {
		afterRun++
	})
	e.Events().BeforeRun.Subscribe("test", func(_ engine.Run, prevent func()) {
		prevent()
	})
	result, err := e.RunOnce(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equals(t, result == nil, true)
	assert.Equals(t, afterRun, 0)
}

func TestBaseEngine_StatusMachine(t *testing.T) {
	editor := newTestEditor(t)
	var status engine.Status
	var e *engine.DependencyEngine
	probe := graph.NodeDefinition{
		Type:    "probe",
		Outputs: []graph.InterfaceDefinition{{Key: "status", New: newInterface("Status", nil)}},
		Calculate: func(_ context.Context, _ map[string]any, _ graph.CalculationContext) (map[string]any, error) {
			status = e.Status()
			return map[string]any{"status": status}, nil
		},
	}
	e = assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	var transitions []engine.Status
	e.Events().StatusChanged.Subscribe("test", func(s engine.Status) {
		transitions = append(transitions, s)
	})
	runs := 0
	e.Events().AfterRun.Subscribe("test", func(engine.RunResult) {
		runs++
	})

	g := editor.Graph()
	constant := newConstant(g, 1)
	g.AddNode(probe.New())
	assert.Equals(t, e.Status(), engine.StatusStopped)
	assert.Equals(t, runs, 0)

	e.Start()
	assert.Equals(t, e.Status(), engine.StatusIdle)
	constant.Inputs().Get("value").SetValue(2)
	assert.Equals(t, runs, 1)
	assert.Equals(t, status, engine.StatusRunning)
	assert.Equals(t, e.Status(), engine.StatusIdle)

	e.Pause()
	constant.Inputs().Get("value").SetValue(3)
	g.AddNode(constantNode.New())
	assert.Equals(t, runs, 1)

	e.Resume()
	constant.Inputs().Get("value").SetValue(4)
	assert.Equals(t, runs, 2)

	// Changes inside a transaction do not trigger a run.
	g.Transaction(func() {
		constant.Inputs().Get("value").SetValue(5)
	})
	assert.Equals(t, runs, 2)

	e.Stop()
	constant.Inputs().Get("value").SetValue(6)
	assert.Equals(t, runs, 2)
	assert.Equals(t, transitions, []engine.Status{
		engine.StatusIdle,
		engine.StatusPaused,
		engine.StatusIdle,
		engine.StatusStopped,
	})

	e.Dispose()
	e.Start()
	constant.Inputs().Get("value").SetValue(7)
	assert.Equals(t, runs, 2)
}

func TestBaseEngine_AutomaticRunErrors(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 1)
	b := g.AddNode(addOneNode.New())
	connect(t, g, a, "out", b, "in")
	var errs []error
	e.Events().Error.Subscribe("test", func(err error) {
		errs = append(errs, err)
	})
	e.Hooks().GatherCalculationData.Subscribe("test", func(any) any {
		return "globals"
	})
	var globals []any
	e.Events().BeforeRun.Subscribe("test", func(run engine.Run, _ func()) {
		globals = append(globals, run.CalculationData)
	})
	e.Start()
	a.Inputs().Get("value").SetValue("x")
	assert.Equals(t, len(errs), 1)
	assert.Equals(t, globals, []any{"globals"})
}

func TestBaseEngine_CheckConnection(t *testing.T) {
	editor := newTestEditor(t)
	_ = assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 1)
	b := g.AddNode(addOneNode.New())
	c := g.AddNode(addOneNode.New())
	connect(t, g, b, "out", c, "in")

	// Cycles are rejected, even while the engine is stopped.
	assert.Equals(t, g.AddConnection(c.Outputs().Get("out"), b.Inputs().Get("in")) == nil, true)

	// A single-connection input loses its previous connection.
	first := connect(t, g, a, "out", b, "in")
	second := connect(t, g, newConstant(g, 2), "out", b, "in")
	assert.Equals(t, first.Destructed(), true)
	assert.Equals(t, second.Destructed(), false)
	assert.Equals(t, b.Inputs().Get("in").ConnectionCount(), 1)
	assert.Equals(t, a.Outputs().Get("out").ConnectionCount(), 0)

	// Multi-connection inputs keep every connection.
	collect := g.AddNode(collectNode.New())
	connect(t, g, a, "out", collect, "in")
	connect(t, g, c, "out", collect, "in")
	assert.Equals(t, collect.Inputs().Get("in").ConnectionCount(), 2)
}

func TestBaseEngine_CheckConnectionDisplayedInstance(t *testing.T) {
	editor := newTestEditor(t)
	_ = assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))

	blueprint := graph.NewGraph(nil, nil)
	a := blueprint.AddNode(addOneNode.New())
	b := blueprint.AddNode(addOneNode.New())
	c := blueprint.AddNode(addOneNode.New())
	template := graph.TemplateFromGraph(blueprint, editor)
	assert.Equals(t, editor.AddGraphTemplate(template), true)

	displayed := assert.NoErrorR[*graph.Graph](t)(template.CreateGraph(nil))
	other := assert.NoErrorR[*graph.Graph](t)(template.CreateGraph(nil))
	instanceInterface := func(g *graph.Graph, n graph.Node, key string, input bool) *graph.NodeInterface {
		templateInterface := n.Outputs().Get(key)
		if input {
			templateInterface = n.Inputs().Get(key)
		}
		intf := g.FindInterfaceByTemplateID(templateInterface.ID())
		assert.NotNil(t, intf)
		return intf
	}

	connectInstance := func(g *graph.Graph, from graph.Node, to graph.Node) *graph.Connection {
		return g.AddConnection(instanceInterface(g, from, "out", false), instanceInterface(g, to, "in", true))
	}

	editor.SwitchGraph(displayed)
	assert.NotNil(t, connectInstance(displayed, a, b))
	assert.NotNil(t, connectInstance(displayed, b, c))

	// c → a is acyclic in the other instance alone but closes a → b → c in the displayed one.
	assert.Equals(t, connectInstance(other, c, a) == nil, true)
	assert.Equals(t, len(other.Connections()), 0)

	editor.SwitchGraph(editor.Graph())
	assert.NotNil(t, connectInstance(other, c, a))
}

func TestDependencyEngine_Subgraph(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.DependencyEngine](t)(engine.NewDependencyEngine(editor, log.NewTestLogger(t)))

	blueprint := graph.NewGraph(nil, nil)
	in := blueprint.AddNode(graph.NewGraphInputNode())
	addOne := blueprint.AddNode(addOneNode.New())
	out := blueprint.AddNode(graph.NewGraphOutputNode())
	assert.NotNil(t, blueprint.AddConnection(in.Outputs().Get("placeholder"), addOne.Inputs().Get("in")))
	assert.NotNil(t, blueprint.AddConnection(addOne.Outputs().Get("out"), out.Inputs().Get("placeholder")))
	template := graph.TemplateFromGraph(blueprint, editor)
	assert.Equals(t, editor.AddGraphTemplate(template), true)
	info, _ := editor.NodeType(template.NodeType())

	g := editor.Graph()
	source := newConstant(g, 5)
	graphNode := g.AddNode(info.Factory()).(*graph.GraphNode)
	inputID := template.Inputs()[0].ID
	outputID := template.Outputs()[0].ID
	connect(t, g, source, "out", graphNode, inputID)
	sink := g.AddNode(addOneNode.New())
	connect(t, g, graphNode, outputID, sink, "in")

	result := assert.NoErrorR[graph.CalculationResult](t)(e.RunOnce(context.Background(), nil))
	value, _ := result.Get(graphNode.ID(), outputID)
	assert.Equals(t, value, any(6))
	value, _ = result.Get(sink.ID(), "out")
	assert.Equals(t, value, any(7))

	nestedAny, _ := result.Get(graphNode.ID(), graph.CalculationResultsKey)
	nested := nestedAny.(graph.CalculationResult)
	innerAddOne := graphNode.Subgraph().FindInterfaceByTemplateID(addOne.Outputs().Get("out").ID())
	assert.NotNil(t, innerAddOne)
	value, _ = nested.Get(innerAddOne.NodeID(), "out")
	assert.Equals(t, value, any(6))

	// Applying the result writes the outputs without triggering a run.
	e.Start()
	runs := 0
	e.Events().AfterRun.Subscribe("test", func(engine.RunResult) {
		runs++
	})
	engine.ApplyResult(result, editor)
	assert.Equals(t, runs, 0)
	assert.Equals(t, sink.Outputs().Get("out").Value(), any(7))
	assert.Equals(t, graphNode.Outputs().Get(outputID).Value(), any(6))
	assert.Equals(t, innerAddOne.Value(), any(6))
}

func TestMermaid(t *testing.T) {
	editor := newTestEditor(t)
	g := editor.Graph()
	a := newConstant(g, 1)
	b := g.AddNode(pairNode.New())
	connect(t, g, a, "out", b, "x")
	connect(t, g, a, "out", b, "y")
	mermaid := assert.NoErrorR[string](t)(engine.Mermaid(g))
	assert.Contains(t, mermaid, a.ID())
	assert.Contains(t, mermaid, b.ID())
}

func TestForwardEngine_NoStartNode(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(engine.NewForwardEngine(editor, log.NewTestLogger(t)))
	_, err := e.RunOnce(context.Background(), nil)
	assert.Equals(t, errors.Is(err, engine.ErrNoStartNode), true)
}

func TestForwardEngine_Merged(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(engine.NewForwardEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 1)
	b := g.AddNode(addOneNode.New())
	c := g.AddNode(pairNode.New())
	connect(t, g, a, "out", b, "in")
	connect(t, g, b, "out", c, "x")
	connect(t, g, a, "out", c, "y")
	unrelated := newConstant(g, 100)
	unrelatedSink := g.AddNode(addOneNode.New())
	connect(t, g, unrelated, "out", unrelatedSink, "in")

	var calculated []string
	e.Events().BeforeNodeCalculation.Subscribe("test", func(data engine.NodeCalculation) {
		calculated = append(calculated, data.Node.ID())
	})

	result := assert.NoErrorR[graph.CalculationResult](t)(
		e.RunFrom(context.Background(), nil, a, map[string]any{"value": 5}),
	)
	assert.Equals(t, calculated, []string{a.ID(), b.ID(), c.ID()})
	out, _ := result.Get(c.ID(), "out")
	assert.Equals(t, out, any([]any{6, 5}))
	_, ok := result[unrelated.ID()]
	assert.Equals(t, ok, false)
	_, ok = result[unrelatedSink.ID()]
	assert.Equals(t, ok, false)

	// A run from the middle uses the remembered output of a for the input it does not reach.
	calculated = nil
	result = assert.NoErrorR[graph.CalculationResult](t)(
		e.RunFrom(context.Background(), nil, b, map[string]any{"in": 10}),
	)
	assert.Equals(t, calculated, []string{b.ID(), c.ID()})
	out, _ = result.Get(c.ID(), "out")
	assert.Equals(t, out, any([]any{11, 5}))
}

func TestForwardEngine_MergedMultipleConnections(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(engine.NewForwardEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 1)
	b := newConstant(g, 2)
	collect := g.AddNode(collectNode.New())
	connect(t, g, a, "out", collect, "in")
	connect(t, g, b, "out", collect, "in")

	result := assert.NoErrorR[graph.CalculationResult](t)(
		e.RunOnce(context.Background(), nil, []graph.Node{a, b}),
	)
	out, _ := result.Get(collect.ID(), "out")
	assert.Equals(t, out, any([]any{1, 2}))

	// b is not reached, its remembered output keeps its place in the list.
	var calculated []string
	e.Events().BeforeNodeCalculation.Subscribe("test", func(data engine.NodeCalculation) {
		calculated = append(calculated, data.Node.ID())
	})
	result = assert.NoErrorR[graph.CalculationResult](t)(
		e.RunFrom(context.Background(), nil, a, map[string]any{"value": 10}),
	)
	assert.Equals(t, calculated, []string{a.ID(), collect.ID()})
	out, _ = result.Get(collect.ID(), "out")
	assert.Equals(t, out, any([]any{10, 2}))
}

func TestForwardEngine_StartNodeOutsideRootGraph(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(engine.NewForwardEngine(editor, log.NewTestLogger(t)))
	_, err := e.RunFrom(context.Background(), nil, constantNode.New(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not part of the root graph")
}

func TestForwardEngine_IndependentVisits(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(
		engine.NewForwardEngine(editor, log.NewTestLogger(t), engine.WithIndependentVisits()),
	)
	g := editor.Graph()
	source := newConstant(g, 1)
	left := g.AddNode(addOneNode.New())
	right := g.AddNode(addOneNode.New())
	join := g.AddNode(pairNode.New())
	connect(t, g, source, "out", left, "in")
	connect(t, g, source, "out", right, "in")
	connect(t, g, left, "out", join, "x")
	connect(t, g, right, "out", join, "y")

	var joinInputs []map[string]any
	e.Events().BeforeNodeCalculation.Subscribe("test", func(data engine.NodeCalculation) {
		if data.Node == join {
			joinInputs = append(joinInputs, data.InputValues)
		}
	})
	_, err := e.RunFrom(context.Background(), nil, source, nil)
	assert.NoError(t, err)
	assert.Equals(t, joinInputs, []map[string]any{{"x": 2}, {"y": 2}})
}

func TestForwardEngine_AutomaticRun(t *testing.T) {
	editor := newTestEditor(t)
	e := assert.NoErrorR[*engine.ForwardEngine](t)(engine.NewForwardEngine(editor, log.NewTestLogger(t)))
	g := editor.Graph()
	a := newConstant(g, 1)
	b := g.AddNode(addOneNode.New())
	connect(t, g, a, "out", b, "in")
	var results []graph.CalculationResult
	e.Events().AfterRun.Subscribe("test", func(data engine.RunResult) {
		results = append(results, data.Result)
	})
	e.Start()

	// Structural changes do not start a forward run.
	g.AddNode(addOneNode.New())
	assert.Equals(t, len(results), 0)

	a.Inputs().Get("value").SetValue(41)
	assert.Equals(t, len(results), 1)
	out, _ := results[0].Get(b.ID(), "out")
	assert.Equals(t, out, any(42))
}

package engine

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/graph"
)

// WithIndependentVisits makes the forward engine calculate a node once per propagated value, passing only that value,
// instead of merging every value propagated to the node during a run.
func WithIndependentVisits() Option {
	return func(e *BaseEngine) {
		e.independentVisits = true
	}
}

// ForwardEngine recalculates only the nodes reachable from the nodes a run starts from.
//
// RunOnce expects the start node (a graph.Node or a []graph.Node) as first argument. An optional second argument of
// type map[string]any overrides input values of the first start node by input key.
type ForwardEngine struct {
	*BaseEngine

	// outputs holds the last calculated value of every output interface, by interface ID.
	outputs map[string]any
}

// NewForwardEngine creates a stopped forward engine observing the editor. While idle, it runs from every node whose
// interface values change.
func NewForwardEngine(editor *graph.Editor, logger log.Logger, options ...Option) (*ForwardEngine, error) {
	base, err := newBaseEngine(editor, logger, "forward-engine", options)
	if err != nil {
		return nil, err
	}
	e := &ForwardEngine{
		BaseEngine: base,
		outputs:    map[string]any{},
	}
	base.execute = e.executeFrom
	base.onChange = func(_ bool, updatedNode graph.Node, g *graph.Graph) {
		if updatedNode == nil || g != e.editor.Graph() {
			return
		}
		e.autoRun(updatedNode)
	}
	return e, nil
}

// RunFrom runs the calculation starting at node.
func (e *ForwardEngine) RunFrom(
	ctx context.Context,
	calculationData any,
	node graph.Node,
	inputs map[string]any,
) (graph.CalculationResult, error) {
	return e.RunOnce(ctx, calculationData, node, inputs)
}

func (e *ForwardEngine) executeFrom(ctx context.Context, calculationData any, args ...any) (graph.CalculationResult, error) {
	startNodes, overrides, err := forwardArgs(args)
	if err != nil {
		return nil, err
	}
	root := e.editor.Graph()
	if _, err := e.orderOf(root); err != nil {
		return nil, err
	}
	for _, n := range startNodes {
		if root.FindNodeByID(n.ID()) != n {
			return nil, fmt.Errorf("start node %s is not part of the root graph", n.ID())
		}
	}
	if e.independentVisits {
		return e.visitIndependently(ctx, root, startNodes, overrides, calculationData)
	}
	return e.visitMerged(ctx, root, startNodes, overrides, calculationData)
}

func forwardArgs(args []any) ([]graph.Node, map[string]any, error) {
	if len(args) == 0 || args[0] == nil {
		return nil, nil, ErrNoStartNode
	}
	var startNodes []graph.Node
	switch start := args[0].(type) {
	case graph.Node:
		startNodes = []graph.Node{start}
	case []graph.Node:
		startNodes = start
	default:
		return nil, nil, fmt.Errorf("invalid start node argument of type %T", args[0])
	}
	if len(startNodes) == 0 {
		return nil, nil, ErrNoStartNode
	}
	var overrides map[string]any
	if len(args) > 1 && args[1] != nil {
		var ok bool
		overrides, ok = args[1].(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("invalid input argument of type %T", args[1])
		}
	}
	return startNodes, overrides, nil
}

// visitMerged calculates every node reachable from the start nodes exactly once, in dependency order. Values
// propagated during the run replace the inputs they reach; inputs not reached keep their last known value.
func (e *ForwardEngine) visitMerged(
	ctx context.Context,
	root *graph.Graph,
	startNodes []graph.Node,
	overrides map[string]any,
	calculationData any,
) (graph.CalculationResult, error) {
	order := e.orders[root.ID()]
	reachable := map[string]struct{}{}
	queue := append([]graph.Node(nil), startNodes...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := reachable[n.ID()]; ok {
			continue
		}
		reachable[n.ID()] = struct{}{}
		for _, c := range order.ConnectionsFromNode[n.ID()] {
			if next := root.FindNodeByID(order.InterfaceIDToNodeID[c.To().ID()]); next != nil {
				queue = append(queue, next)
			}
		}
	}

	propagated := map[*graph.Connection]any{}
	result := graph.CalculationResult{}
	for _, n := range order.CalculationOrder {
		if _, ok := reachable[n.ID()]; !ok {
			continue
		}
		inputValues := map[string]any{}
		for _, key := range n.Inputs().Keys() {
			inputValues[key] = e.mergedInputValue(root, n.Inputs().Get(key), propagated)
		}
		if n == startNodes[0] {
			for key, value := range overrides {
				inputValues[key] = value
			}
		}
		outputValues, err := e.calculateNode(ctx, n, inputValues, calculationData, e.currentOutputValue)
		if err != nil {
			return nil, err
		}
		e.remember(n, outputValues)
		result[n.ID()] = outputValues

		for _, c := range order.ConnectionsFromNode[n.ID()] {
			value, err := e.transfer(n, c, outputValues)
			if err != nil {
				return nil, err
			}
			propagated[c] = value
		}
	}
	return result, nil
}

// mergedInputValue returns the value of an input during a merged run. Every incoming connection contributes the value
// propagated over it during the run, or else the last known value of its source output. Multi-connection inputs
// receive the contributions in connection order.
func (e *ForwardEngine) mergedInputValue(
	g *graph.Graph,
	intf *graph.NodeInterface,
	propagated map[*graph.Connection]any,
) any {
	if intf.ConnectionCount() == 0 {
		return intf.Value()
	}
	var values []any
	for _, c := range g.ConnectionsOf(intf) {
		if c.To() != intf {
			continue
		}
		value, ok := propagated[c]
		if !ok {
			value, _ = e.currentOutputValue(c.From())
		}
		values = append(values, value)
	}
	if intf.AllowMultipleConnections() {
		return values
	}
	if len(values) == 0 {
		return intf.Value()
	}
	return values[len(values)-1]
}

type visit struct {
	node   graph.Node
	inputs map[string]any
}

// visitIndependently calculates a node once per value propagated to it, passing only that value. Start nodes receive
// their full current inputs.
func (e *ForwardEngine) visitIndependently(
	ctx context.Context,
	root *graph.Graph,
	startNodes []graph.Node,
	overrides map[string]any,
	calculationData any,
) (graph.CalculationResult, error) {
	order := e.orders[root.ID()]
	var queue []visit
	for i, n := range startNodes {
		inputValues := map[string]any{}
		for _, key := range n.Inputs().Keys() {
			inputValues[key] = e.currentInputValue(root, n.Inputs().Get(key))
		}
		if i == 0 {
			for key, value := range overrides {
				inputValues[key] = value
			}
		}
		queue = append(queue, visit{node: n, inputs: inputValues})
	}

	result := graph.CalculationResult{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		n := current.node
		outputValues, err := e.calculateNode(ctx, n, current.inputs, calculationData, e.currentOutputValue)
		if err != nil {
			return nil, err
		}
		e.remember(n, outputValues)
		result[n.ID()] = outputValues

		for _, c := range order.ConnectionsFromNode[n.ID()] {
			value, err := e.transfer(n, c, outputValues)
			if err != nil {
				return nil, err
			}
			next := root.FindNodeByID(order.InterfaceIDToNodeID[c.To().ID()])
			if next == nil {
				continue
			}
			key, ok := next.Inputs().KeyOf(c.To().ID())
			if !ok {
				return nil, fmt.Errorf("bug: could not find the key of interface %s on node %s", c.To().ID(), next.ID())
			}
			queue = append(queue, visit{node: next, inputs: map[string]any{key: value}})
		}
	}
	return result, nil
}

// currentInputValue returns the value an input has outside of a run: its own value if unconnected, otherwise the last
// known value of the outputs feeding it.
func (e *ForwardEngine) currentInputValue(g *graph.Graph, intf *graph.NodeInterface) any {
	return e.mergedInputValue(g, intf, nil)
}

func (e *ForwardEngine) currentOutputValue(intf *graph.NodeInterface) (any, error) {
	if value, ok := e.outputs[intf.ID()]; ok {
		return value, nil
	}
	return intf.Value(), nil
}

func (e *ForwardEngine) remember(n graph.Node, outputValues map[string]any) {
	for _, key := range n.Outputs().Keys() {
		e.outputs[n.Outputs().Get(key).ID()] = outputValues[key]
	}
}

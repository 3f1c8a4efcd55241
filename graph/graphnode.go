package graph

import (
	"context"
	"fmt"
)

// GraphNodeTypePrefix prefixes the template ID in the type of a graph node.
const GraphNodeTypePrefix = "graph-node:"

// GraphNode embeds a live instance of a template. Its inputs and outputs are keyed by the graph interface IDs of the
// template's marker nodes and forward to the interfaces wired to those markers inside the sub-graph.
type GraphNode struct {
	BaseNode
	template *GraphTemplate
	subgraph *Graph
}

// NewGraphNode creates a graph node for the template. The sub-graph is instantiated once the node is placed.
func NewGraphNode(template *GraphTemplate) *GraphNode {
	n := &GraphNode{template: template}
	n.Init(n, template.NodeType(), template.Name())
	n.AddOutput(
		CalculationResultsKey,
		NewInterface(CalculationResultsKey, nil).WithHidden(true).WithPort(false),
	)
	n.SetCalculation(n.calculate)
	return n
}

// Template returns the template the node instantiates.
func (n *GraphNode) Template() *GraphTemplate {
	return n.template
}

// Subgraph returns the embedded sub-graph, or nil while the node is not placed.
func (n *GraphNode) Subgraph() *Graph {
	return n.subgraph
}

func (n *GraphNode) OnPlaced() {
	n.template.events.Updated.Subscribe(n, func(*GraphTemplate) {
		n.initialize()
	})
	n.template.events.NameChanged.Subscribe(n, func(t *GraphTemplate) {
		n.SetTitle(t.Name())
	})
	n.initialize()
}

func (n *GraphNode) OnDestroy() {
	n.template.events.Updated.Unsubscribe(n)
	n.template.events.NameChanged.Unsubscribe(n)
	if n.subgraph != nil {
		n.subgraph.Destroy()
		n.subgraph = nil
	}
}

func (n *GraphNode) initialize() {
	if n.subgraph != nil {
		n.subgraph.Destroy()
		n.subgraph = nil
	}
	subgraph, err := n.template.CreateGraph(nil)
	if err != nil {
		if editor := n.template.editor; editor != nil {
			editor.logger.Errorf("Failed to instantiate template %s for node %s (%v)", n.template.id, n.id, err)
		}
		return
	}
	n.subgraph = subgraph
	n.updateInterfaces()
	n.events.Update.Emit(NodeUpdate{Node: n})
}

func (n *GraphNode) updateInterfaces() {
	inputs := n.subgraph.Inputs()
	outputs := n.subgraph.Outputs()

	wanted := map[string]struct{}{}
	for _, gi := range inputs {
		wanted[gi.ID] = struct{}{}
		if existing := n.inputs.Get(gi.ID); existing != nil {
			existing.SetName(gi.Name)
			continue
		}
		n.AddInput(gi.ID, NewProxyInterface(gi.Name, n.inputTarget(gi.ID)))
	}
	for _, key := range n.inputs.Keys() {
		if _, ok := wanted[key]; !ok {
			n.removeStale(key, true)
		}
	}

	wanted = map[string]struct{}{CalculationResultsKey: {}}
	for _, gi := range outputs {
		wanted[gi.ID] = struct{}{}
		if existing := n.outputs.Get(gi.ID); existing != nil {
			existing.SetName(gi.Name)
			continue
		}
		n.AddOutput(gi.ID, NewProxyInterface(gi.Name, n.outputTarget(gi.ID)))
	}
	for _, key := range n.outputs.Keys() {
		if _, ok := wanted[key]; !ok {
			n.removeStale(key, false)
		}
	}
}

func (n *GraphNode) removeStale(key string, isInput bool) {
	var err error
	if isInput {
		_, err = n.RemoveInput(key)
	} else {
		_, err = n.RemoveOutput(key)
	}
	if err != nil && n.template.editor != nil {
		n.template.editor.logger.Warningf("Failed to remove stale interface %s of node %s (%v)", key, n.id, err)
	}
}

// inputTarget resolves to the sub-graph interface fed by the input marker with the given graph interface ID.
func (n *GraphNode) inputTarget(graphInterfaceID string) func() *NodeInterface {
	return func() *NodeInterface {
		if n.subgraph == nil {
			return nil
		}
		for _, node := range n.subgraph.nodes {
			marker, ok := node.(*GraphInputNode)
			if !ok || marker.graphInterfaceID != graphInterfaceID {
				continue
			}
			placeholder := marker.outputs.Get(markerPlaceholderKey)
			for _, c := range n.subgraph.connections {
				if c.from == placeholder {
					return c.to
				}
			}
		}
		return nil
	}
}

// outputTarget resolves to the sub-graph interface feeding the output marker with the given graph interface ID.
func (n *GraphNode) outputTarget(graphInterfaceID string) func() *NodeInterface {
	return func() *NodeInterface {
		if n.subgraph == nil {
			return nil
		}
		for _, node := range n.subgraph.nodes {
			marker, ok := node.(*GraphOutputNode)
			if !ok || marker.graphInterfaceID != graphInterfaceID {
				continue
			}
			placeholder := marker.inputs.Get(markerPlaceholderKey)
			for _, c := range n.subgraph.connections {
				if c.to == placeholder {
					return c.from
				}
			}
		}
		return nil
	}
}

func (n *GraphNode) calculate(
	ctx context.Context,
	inputs map[string]any,
	calculationContext CalculationContext,
) (map[string]any, error) {
	if n.subgraph == nil {
		return nil, fmt.Errorf("graph node %s has no instance of template %s", n.id, n.template.id)
	}
	if calculationContext.Engine == nil {
		return nil, fmt.Errorf("bug: no engine passed to the calculation of graph node %s", n.id)
	}
	values, err := calculationContext.Engine.GetInputValues(n.subgraph)
	if err != nil {
		return nil, err
	}
	for _, gi := range n.subgraph.Inputs() {
		values[gi.NodeInterfaceID] = inputs[gi.ID]
	}
	result, err := calculationContext.Engine.RunGraph(ctx, n.subgraph, values, calculationContext.GlobalValues)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sub-graph of node %s (%w)", n.id, err)
	}
	outputs := map[string]any{
		CalculationResultsKey: result,
	}
	for _, gi := range n.subgraph.Outputs() {
		value, _ := result.Get(gi.NodeID, markerOutputKey)
		outputs[gi.ID] = value
	}
	return outputs, nil
}

func (n *GraphNode) saveState(state *NodeState) {
	if n.subgraph == nil {
		return
	}
	subgraphState := n.subgraph.Save()
	state.GraphState = &subgraphState
}

func (n *GraphNode) loadState(state NodeState) error {
	if state.GraphState == nil {
		return nil
	}
	if n.subgraph == nil {
		return fmt.Errorf("cannot load the sub-graph state before the node is placed")
	}
	warnings := n.subgraph.Load(*state.GraphState)
	if n.template.editor != nil {
		for _, warning := range warnings {
			n.template.editor.logger.Warningf("Loading sub-graph of node %s: %s", n.id, warning)
		}
	}
	n.updateInterfaces()
	return nil
}

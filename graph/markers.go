package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	// GraphInputNodeType is the type of the marker node declaring a graph input.
	GraphInputNodeType = "graph-input"
	// GraphOutputNodeType is the type of the marker node declaring a graph output.
	GraphOutputNodeType = "graph-output"

	markerNameKey        = "name"
	markerPlaceholderKey = "placeholder"
	markerOutputKey      = "output"
)

// GraphInputNode marks an input of the graph it is placed in. Its placeholder output carries the value passed to the
// graph node embedding the graph.
type GraphInputNode struct {
	BaseNode
	graphInterfaceID string
}

// NewGraphInputNode creates an input marker with a fresh graph interface ID.
func NewGraphInputNode() *GraphInputNode {
	n := &GraphInputNode{graphInterfaceID: uuid.NewString()}
	n.Init(n, GraphInputNodeType, "Graph Input")
	n.AddInput(markerNameKey, NewInterface("Name", "Input").WithType("string").WithPort(false))
	n.AddOutput(markerPlaceholderKey, NewInterface("Value", nil))
	return n
}

// GraphInterfaceID returns the ID of the graph input, stable across template instances.
func (n *GraphInputNode) GraphInterfaceID() string {
	return n.graphInterfaceID
}

// InterfaceName returns the configured name of the graph input.
func (n *GraphInputNode) InterfaceName() string {
	return markerName(n.inputs.Get(markerNameKey))
}

func (n *GraphInputNode) saveState(state *NodeState) {
	state.GraphInterfaceID = n.graphInterfaceID
}

func (n *GraphInputNode) loadState(state NodeState) error {
	if state.GraphInterfaceID != "" {
		n.graphInterfaceID = state.GraphInterfaceID
	}
	return nil
}

// GraphOutputNode marks an output of the graph it is placed in. It copies the value wired into its placeholder input
// to its hidden output.
type GraphOutputNode struct {
	BaseNode
	graphInterfaceID string
}

// NewGraphOutputNode creates an output marker with a fresh graph interface ID.
func NewGraphOutputNode() *GraphOutputNode {
	n := &GraphOutputNode{graphInterfaceID: uuid.NewString()}
	n.Init(n, GraphOutputNodeType, "Graph Output")
	n.AddInput(markerNameKey, NewInterface("Name", "Output").WithType("string").WithPort(false))
	n.AddInput(markerPlaceholderKey, NewInterface("Value", nil))
	n.AddOutput(markerOutputKey, NewInterface("Output", nil).WithHidden(true))
	n.SetCalculation(func(_ context.Context, inputs map[string]any, _ CalculationContext) (map[string]any, error) {
		return map[string]any{markerOutputKey: inputs[markerPlaceholderKey]}, nil
	})
	return n
}

// GraphInterfaceID returns the ID of the graph output, stable across template instances.
func (n *GraphOutputNode) GraphInterfaceID() string {
	return n.graphInterfaceID
}

// InterfaceName returns the configured name of the graph output.
func (n *GraphOutputNode) InterfaceName() string {
	return markerName(n.inputs.Get(markerNameKey))
}

func (n *GraphOutputNode) saveState(state *NodeState) {
	state.GraphInterfaceID = n.graphInterfaceID
}

func (n *GraphOutputNode) loadState(state NodeState) error {
	if state.GraphInterfaceID != "" {
		n.graphInterfaceID = state.GraphInterfaceID
	}
	return nil
}

func markerName(intf *NodeInterface) string {
	if intf == nil {
		return ""
	}
	return nameOf(intf.Value())
}

func nameOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

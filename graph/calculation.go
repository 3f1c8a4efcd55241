package graph

import "context"

// CalculationResultsKey is the hidden output of a graph node carrying the result of its sub-graph run.
const CalculationResultsKey = "_calculationResults"

// CalculationResult maps a node ID to the output values the node produced, keyed by output key.
type CalculationResult map[string]map[string]any

// Get returns the value of an output, if it was calculated.
func (r CalculationResult) Get(nodeID string, outputKey string) (any, bool) {
	outputs, ok := r[nodeID]
	if !ok {
		return nil, false
	}
	value, ok := outputs[outputKey]
	return value, ok
}

// EngineRef is the capability a node needs to run a nested graph on the engine driving the current run.
type EngineRef interface {
	// RunGraph calculates every node of the graph. The inputs map interface IDs to values and must contain a value
	// for every interface that is not fed by a connection.
	RunGraph(ctx context.Context, g *Graph, inputs map[string]any, globalValues any) (CalculationResult, error)
	// GetInputValues gathers the current values of every unconnected input and of every output of a node without
	// calculation function.
	GetInputValues(g *Graph) (map[string]any, error)
}

// CalculationContext is passed to every calculation function.
type CalculationContext struct {
	// GlobalValues is the opaque, caller-supplied data of the current run.
	GlobalValues any
	// Engine is the engine driving the current run.
	Engine EngineRef
}

// CalculateFunc computes the outputs of a node from its inputs. The returned map must contain every declared output
// key. It may block; the engine waits for it before calculating dependent nodes.
type CalculateFunc func(ctx context.Context, inputs map[string]any, calculationContext CalculationContext) (
	map[string]any,
	error,
)

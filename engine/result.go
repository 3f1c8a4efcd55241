package engine

import "go.flow.arcalot.io/nodegraph/graph"

// ApplyResult writes calculated output values onto the output interfaces of the nodes of the editor's root graph, and
// of the sub-graphs whose results are carried by graph nodes. The values are written inside a transaction so that the
// engines do not recalculate in response.
func ApplyResult(result graph.CalculationResult, editor *graph.Editor) {
	applyResult(result, editor.Graph())
}

func applyResult(result graph.CalculationResult, g *graph.Graph) {
	if g == nil {
		return
	}
	g.Transaction(func() {
		for _, n := range g.Nodes() {
			outputs, ok := result[n.ID()]
			if !ok {
				continue
			}
			for _, key := range n.Outputs().Keys() {
				value, ok := outputs[key]
				if !ok {
					continue
				}
				if key == graph.CalculationResultsKey {
					nested, isResult := value.(graph.CalculationResult)
					if graphNode, isGraphNode := n.(*graph.GraphNode); isResult && isGraphNode {
						applyResult(nested, graphNode.Subgraph())
					}
					continue
				}
				n.Outputs().Get(key).SetValue(value)
			}
		}
	})
}

package engine

import (
	"errors"
	"fmt"

	"go.arcalot.io/dgraph"
	"go.flow.arcalot.io/nodegraph/graph"
)

// Mermaid renders the node dependencies of a graph as a Mermaid flowchart.
func Mermaid(g *graph.Graph) (string, error) {
	dag := dgraph.New[graph.Node]()
	for _, n := range g.Nodes() {
		if _, err := dag.AddNode(n.ID(), n); err != nil {
			return "", fmt.Errorf("failed to add node %s (%w)", n.ID(), err)
		}
	}
	for _, c := range g.Connections() {
		from := g.NodeOfInterface(c.From())
		to := g.NodeOfInterface(c.To())
		if from == nil || to == nil {
			continue
		}
		fromNode, err := dag.GetNodeByID(from.ID())
		if err != nil {
			return "", fmt.Errorf("failed to find node %s (%w)", from.ID(), err)
		}
		if err := fromNode.Connect(to.ID()); err != nil {
			decodedErr := &dgraph.ErrConnectionAlreadyExists{}
			if !errors.As(err, &decodedErr) {
				return "", fmt.Errorf("failed to connect node %s to %s (%w)", from.ID(), to.ID(), err)
			}
		}
	}
	return dag.Mermaid(), nil
}

// Package toposort orders the nodes of a graph so that every connection points from an earlier to a later node.
package toposort

import (
	"errors"
	"fmt"

	"go.flow.arcalot.io/nodegraph/graph"
)

// CycleError indicates that the connections contain a cycle. NodeIDs lists the nodes that could not be ordered.
type CycleError struct {
	NodeIDs []string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("the graph contains a cycle involving nodes %v", e.NodeIDs)
}

// Result is the outcome of a sort.
type Result struct {
	// CalculationOrder lists the nodes in an order respecting every connection.
	CalculationOrder []graph.Node
	// ConnectionsFromNode maps a node ID to the connections leaving one of its outputs, in insertion order.
	ConnectionsFromNode map[string][]*graph.Connection
	// InterfaceIDToNodeID maps every interface ID to the ID of the node owning it.
	InterfaceIDToNodeID map[string]string
}

// SortGraph sorts the live contents of a graph.
func SortGraph(g *graph.Graph) (*Result, error) {
	return Sort(g.Nodes(), g.Connections())
}

// Sort orders the nodes given the connections. Ties are broken by the order of the nodes slice. Connections whose
// endpoints belong to none of the nodes are ignored.
func Sort(nodes []graph.Node, connections []*graph.Connection) (*Result, error) {
	result := &Result{
		CalculationOrder:    make([]graph.Node, 0, len(nodes)),
		ConnectionsFromNode: map[string][]*graph.Connection{},
		InterfaceIDToNodeID: map[string]string{},
	}
	nodesByID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		nodesByID[n.ID()] = n
		for _, intf := range n.Inputs().All() {
			result.InterfaceIDToNodeID[intf.ID()] = n.ID()
		}
		for _, intf := range n.Outputs().All() {
			result.InterfaceIDToNodeID[intf.ID()] = n.ID()
		}
	}

	// adjacency holds, per source node, the destination nodes in first-seen order.
	adjacency := map[string][]string{}
	hasIncoming := map[string]struct{}{}
	for _, c := range connections {
		if c.From() == nil || c.To() == nil {
			return nil, fmt.Errorf("connection %s has a missing endpoint", c.ID())
		}
		fromID, ok := result.InterfaceIDToNodeID[c.From().ID()]
		if !ok {
			continue
		}
		toID, ok := result.InterfaceIDToNodeID[c.To().ID()]
		if !ok {
			continue
		}
		result.ConnectionsFromNode[fromID] = append(result.ConnectionsFromNode[fromID], c)
		if !contains(adjacency[fromID], toID) {
			adjacency[fromID] = append(adjacency[fromID], toID)
		}
		hasIncoming[toID] = struct{}{}
	}

	var frontier []graph.Node
	for _, n := range nodes {
		if _, ok := hasIncoming[n.ID()]; !ok {
			frontier = append(frontier, n)
		}
	}

	for len(frontier) > 0 {
		n := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		result.CalculationOrder = append(result.CalculationOrder, n)

		destinations := adjacency[n.ID()]
		delete(adjacency, n.ID())
		for _, destination := range destinations {
			if hasRemainingIncoming(adjacency, nodes, destination) {
				continue
			}
			frontier = append(frontier, nodesByID[destination])
		}
	}

	if len(adjacency) > 0 {
		var remaining []string
		for _, n := range nodes {
			if _, ok := adjacency[n.ID()]; ok {
				remaining = append(remaining, n.ID())
			}
		}
		return nil, &CycleError{NodeIDs: remaining}
	}
	return result, nil
}

// ContainsCycle returns true if sorting fails with a CycleError. Every other error is returned.
func ContainsCycle(nodes []graph.Node, connections []*graph.Connection) (bool, error) {
	_, err := Sort(nodes, connections)
	if err == nil {
		return false, nil
	}
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return true, nil
	}
	return false, err
}

// hasRemainingIncoming scans the remaining adjacency sets, in node order, for an edge into the node.
func hasRemainingIncoming(adjacency map[string][]string, nodes []graph.Node, nodeID string) bool {
	for _, n := range nodes {
		if contains(adjacency[n.ID()], nodeID) {
			return true
		}
	}
	return false
}

func contains(items []string, item string) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}

package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckConnectionResult is the answer of Graph.CheckConnection. When Allowed is true, Connection is a dummy connection
// with normalized (output→input) endpoints and ConnectionsInDanger lists the connections adding it would remove.
type CheckConnectionResult struct {
	Allowed             bool
	Connection          *Connection
	ConnectionsInDanger []*Connection
}

// Graph is the mutable container of nodes and connections for one scope. The nodes and connections are kept in
// insertion order, which is the tie-break order of every traversal.
type Graph struct {
	id                 string
	editor             *Editor
	template           *GraphTemplate
	nodes              []Node
	connections        []*Connection
	loading            bool
	activeTransactions int
	destroyed          bool

	events     GraphEvents
	hooks      GraphHooks
	nodeEvents NodeEvents
}

// NewGraph creates an empty graph and registers it with the editor, if any. The template is nil for the root graph.
func NewGraph(editor *Editor, template *GraphTemplate) *Graph {
	g := &Graph{
		id:       uuid.NewString(),
		editor:   editor,
		template: template,
	}
	if editor != nil {
		editor.registerGraph(g)
	}
	return g
}

func (g *Graph) ID() string {
	return g.id
}

// Editor returns the owning editor, or nil.
func (g *Graph) Editor() *Editor {
	return g.editor
}

// Template returns the template this graph was instantiated from, or nil for the root graph.
func (g *Graph) Template() *GraphTemplate {
	return g.template
}

// Nodes returns a snapshot of the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	result := make([]Node, len(g.nodes))
	copy(result, g.nodes)
	return result
}

// Connections returns a snapshot of the connections in insertion order.
func (g *Graph) Connections() []*Connection {
	result := make([]*Connection, len(g.connections))
	copy(result, g.connections)
	return result
}

func (g *Graph) Events() *GraphEvents {
	return &g.events
}

func (g *Graph) Hooks() *GraphHooks {
	return &g.hooks
}

// NodeEvents aggregates the events of every node currently in the graph.
func (g *Graph) NodeEvents() *NodeEvents {
	return &g.nodeEvents
}

// Loading returns true while Load is running.
func (g *Graph) Loading() bool {
	return g.loading
}

// Transaction runs fn with the graph marked as being in a transaction. Engines do not react to changes made inside a
// transaction.
func (g *Graph) Transaction(fn func()) {
	g.activeTransactions++
	defer func() {
		g.activeTransactions--
	}()
	fn()
}

// InTransaction returns true while a Transaction is running.
func (g *Graph) InTransaction() bool {
	return g.activeTransactions > 0
}

// Destroyed returns true once Destroy has been called.
func (g *Graph) Destroyed() bool {
	return g.destroyed
}

// AddNode places a node in the graph. It returns nil if a listener prevented it.
func (g *Graph) AddNode(node Node) Node {
	if node == nil || g.indexOfNode(node) >= 0 {
		return nil
	}
	if g.events.BeforeAddNode.Emit(NodeEvent{Graph: g, Node: node}) {
		return nil
	}
	node.base().graph = g
	g.nodes = append(g.nodes, node)
	g.nodeEvents.Attach(node.Events())
	g.events.AddNode.Emit(NodeEvent{Graph: g, Node: node})
	node.OnPlaced()
	return node
}

// RemoveNode removes a node and every connection touching one of its interfaces. It does nothing if the node is not
// part of the graph or a listener prevents the removal. If the removal of one of its connections is prevented, the
// node stays in the graph.
func (g *Graph) RemoveNode(node Node) {
	if node == nil || g.indexOfNode(node) < 0 {
		return
	}
	if g.events.BeforeRemoveNode.Emit(NodeEvent{Graph: g, Node: node}) {
		return
	}
	for _, c := range g.connectionsOfNode(node) {
		if !g.RemoveConnection(c) {
			return
		}
	}
	if i := g.indexOfNode(node); i >= 0 {
		g.nodes = append(g.nodes[:i:i], g.nodes[i+1:]...)
	}
	g.nodeEvents.Detach(node.Events())
	g.events.RemoveNode.Emit(NodeEvent{Graph: g, Node: node})
	node.OnDestroy()
	node.base().graph = nil
}

// AddConnection connects two interfaces. An input→output request is flipped. It returns nil if the connection is not
// allowed or a listener prevented it. Connections the validity pipeline marked as in danger are removed first; if one
// of these removals is prevented, no connection is added.
func (g *Graph) AddConnection(from *NodeInterface, to *NodeInterface) *Connection {
	check := g.CheckConnection(from, to)
	if !check.Allowed {
		return nil
	}
	from, to = check.Connection.From(), check.Connection.To()
	if g.events.BeforeAddConnection.Emit(ConnectionProposal{Graph: g, From: from, To: to}) {
		return nil
	}
	for _, c := range check.ConnectionsInDanger {
		if !g.RemoveConnection(c) {
			return nil
		}
	}
	c := NewConnection(from, to)
	g.connections = append(g.connections, c)
	g.events.AddConnection.Emit(ConnectionEvent{Graph: g, Connection: c})
	return c
}

// RemoveConnection removes a connection. It returns false if a listener prevented the removal; a connection that is
// not part of the graph counts as removed.
func (g *Graph) RemoveConnection(c *Connection) bool {
	i := g.indexOfConnection(c)
	if i < 0 {
		return true
	}
	if g.events.BeforeRemoveConnection.Emit(ConnectionEvent{Graph: g, Connection: c}) {
		return false
	}
	c.destruct()
	if i = g.indexOfConnection(c); i >= 0 {
		g.connections = append(g.connections[:i:i], g.connections[i+1:]...)
	}
	g.events.RemoveConnection.Emit(ConnectionEvent{Graph: g, Connection: c})
	return true
}

// CheckConnection runs the structural rules and the CheckConnection hooks against a proposed edge.
func (g *Graph) CheckConnection(from *NodeInterface, to *NodeInterface) CheckConnectionResult {
	if from == nil || to == nil {
		return CheckConnectionResult{}
	}
	fromNode := g.NodeOfInterface(from)
	toNode := g.NodeOfInterface(to)
	if fromNode == nil || toNode == nil || fromNode == toNode {
		return CheckConnectionResult{}
	}
	if from.IsInput() && !to.IsInput() {
		from, to = to, from
	}
	if from.IsInput() || !to.IsInput() || !from.Port() || !to.Port() {
		return CheckConnectionResult{}
	}
	for _, c := range g.connections {
		if c.from == from && c.to == to {
			return CheckConnectionResult{}
		}
	}

	proposal := ConnectionProposal{Graph: g, From: from, To: to}
	g.events.CheckConnection.Emit(proposal)
	var inDanger []*Connection
	seen := map[*Connection]struct{}{}
	for _, result := range g.hooks.CheckConnection.Execute(proposal) {
		if !result.Allowed {
			return CheckConnectionResult{}
		}
		for _, c := range result.ConnectionsInDanger {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			inDanger = append(inDanger, c)
		}
	}
	return CheckConnectionResult{
		Allowed:             true,
		Connection:          NewDummyConnection(from, to),
		ConnectionsInDanger: inDanger,
	}
}

// FindNodeByID returns the node with the given ID, or nil.
func (g *Graph) FindNodeByID(id string) Node {
	for _, n := range g.nodes {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// FindInterface returns the interface with the given ID on any node of the graph, or nil.
func (g *Graph) FindInterface(id string) *NodeInterface {
	for _, n := range g.nodes {
		for _, intf := range n.Inputs().items {
			if intf.id == id {
				return intf
			}
		}
		for _, intf := range n.Outputs().items {
			if intf.id == id {
				return intf
			}
		}
	}
	return nil
}

// FindInterfaceByTemplateID returns the interface cloned from the template interface with the given ID, or nil.
func (g *Graph) FindInterfaceByTemplateID(templateID string) *NodeInterface {
	if templateID == "" {
		return nil
	}
	for _, n := range g.nodes {
		for _, intf := range n.Inputs().All() {
			if intf.templateID == templateID {
				return intf
			}
		}
		for _, intf := range n.Outputs().All() {
			if intf.templateID == templateID {
				return intf
			}
		}
	}
	return nil
}

// NodeOfInterface returns the node of the graph that owns the interface, or nil.
func (g *Graph) NodeOfInterface(intf *NodeInterface) Node {
	for _, n := range g.nodes {
		if n.Inputs().Contains(intf) || n.Outputs().Contains(intf) {
			return n
		}
	}
	return nil
}

// ConnectionsOf returns the connections touching the interface, in insertion order.
func (g *Graph) ConnectionsOf(intf *NodeInterface) []*Connection {
	var result []*Connection
	for _, c := range g.connections {
		if c.from == intf || c.to == intf {
			result = append(result, c)
		}
	}
	return result
}

// Inputs returns the graph inputs declared by the graph input marker nodes.
func (g *Graph) Inputs() []GraphInterface {
	var result []GraphInterface
	for _, n := range g.nodes {
		marker, ok := n.(*GraphInputNode)
		if !ok {
			continue
		}
		result = append(result, GraphInterface{
			ID:              marker.GraphInterfaceID(),
			Name:            marker.InterfaceName(),
			NodeID:          marker.ID(),
			NodeInterfaceID: marker.Outputs().Get(markerPlaceholderKey).ID(),
		})
	}
	return result
}

// Outputs returns the graph outputs declared by the graph output marker nodes.
func (g *Graph) Outputs() []GraphInterface {
	var result []GraphInterface
	for _, n := range g.nodes {
		marker, ok := n.(*GraphOutputNode)
		if !ok {
			continue
		}
		result = append(result, GraphInterface{
			ID:              marker.GraphInterfaceID(),
			Name:            marker.InterfaceName(),
			NodeID:          marker.ID(),
			NodeInterfaceID: marker.Outputs().Get(markerOutputKey).ID(),
		})
	}
	return result
}

// Save serializes the graph and passes the result through the Save hook.
func (g *Graph) Save() GraphState {
	state := GraphState{
		ID:          g.id,
		Nodes:       make([]NodeState, 0, len(g.nodes)),
		Connections: make([]ConnectionState, 0, len(g.connections)),
		Inputs:      g.Inputs(),
		Outputs:     g.Outputs(),
	}
	for _, n := range g.nodes {
		state.Nodes = append(state.Nodes, n.Save())
	}
	for _, c := range g.connections {
		state.Connections = append(state.Connections, ConnectionState{
			ID:   c.id,
			From: c.from.id,
			To:   c.to.id,
		})
	}
	return g.hooks.Save.Execute(state)
}

// Load replaces the contents of the graph with the serialized state. Unknown node types, failing node loads, and
// unresolvable interface IDs are skipped and reported as warnings.
func (g *Graph) Load(state GraphState) []string {
	g.loading = true
	defer func() {
		g.loading = false
	}()

	for i := len(g.connections) - 1; i >= 0; i-- {
		g.RemoveConnection(g.connections[i])
	}
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.RemoveNode(g.nodes[i])
	}
	if state.ID != "" {
		g.id = state.ID
	}

	var warnings []string
	for _, nodeState := range state.Nodes {
		var factory NodeFactory
		if g.editor != nil {
			if info, ok := g.editor.NodeType(nodeState.Type); ok {
				factory = info.Factory
			}
		}
		if factory == nil {
			warnings = append(warnings, fmt.Sprintf("Node type %s is not registered", nodeState.Type))
			continue
		}
		node := factory()
		if g.AddNode(node) == nil {
			warnings = append(warnings, fmt.Sprintf("Adding node %s of type %s was prevented", nodeState.ID, nodeState.Type))
			continue
		}
		if err := node.Load(nodeState); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	for _, connectionState := range state.Connections {
		from := g.FindInterface(connectionState.From)
		to := g.FindInterface(connectionState.To)
		switch {
		case from == nil:
			warnings = append(warnings, fmt.Sprintf(
				"Could not find interface with id %s for connection %s", connectionState.From, connectionState.ID,
			))
		case to == nil:
			warnings = append(warnings, fmt.Sprintf(
				"Could not find interface with id %s for connection %s", connectionState.To, connectionState.ID,
			))
		default:
			c := NewConnection(from, to)
			if connectionState.ID != "" {
				c.id = connectionState.ID
			}
			g.connections = append(g.connections, c)
		}
	}

	g.hooks.Load.Execute(state)
	return warnings
}

// Destroy removes every node and unregisters the graph from its editor.
func (g *Graph) Destroy() {
	if g.destroyed {
		return
	}
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.RemoveNode(g.nodes[i])
	}
	g.destroyed = true
	if g.editor != nil {
		g.editor.unregisterGraph(g)
	}
}

func (g *Graph) indexOfNode(node Node) int {
	for i, n := range g.nodes {
		if n == node {
			return i
		}
	}
	return -1
}

func (g *Graph) indexOfConnection(c *Connection) int {
	for i, existing := range g.connections {
		if existing == c {
			return i
		}
	}
	return -1
}

func (g *Graph) connectionsOfNode(node Node) []*Connection {
	var result []*Connection
	for _, c := range g.connections {
		if node.Inputs().Contains(c.to) || node.Outputs().Contains(c.from) ||
			node.Inputs().Contains(c.from) || node.Outputs().Contains(c.to) {
			result = append(result, c)
		}
	}
	return result
}

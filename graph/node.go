package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is a unit of computation with named input and output interfaces. Implementations embed BaseNode and call
// BaseNode.Init from their constructor.
type Node interface {
	// ID returns the node ID, unique within a graph.
	ID() string
	// Type returns the discriminator used for serialization and registry lookup.
	Type() string
	Title() string
	// SetTitle changes the title unless a listener prevents it.
	SetTitle(title string) bool
	Inputs() *Interfaces
	Outputs() *Interfaces
	// Calculation returns the calculation function, or nil if the node only carries values.
	Calculation() CalculateFunc
	// Graph returns the graph the node is placed in, or nil.
	Graph() *Graph
	Events() *NodeEvents
	Hooks() *NodeHooks
	// OnPlaced is called once after the node has been added to a graph.
	OnPlaced()
	// OnDestroy is called once after the node has been removed from its graph.
	OnDestroy()
	Save() NodeState
	Load(state NodeState) error

	base() *BaseNode
}

// NodeFactory creates a fresh node instance. It is registered with the editor under the type of the nodes it creates.
type NodeFactory func() Node

// stateExtender is implemented by node types in this package that carry state beyond their interfaces.
type stateExtender interface {
	saveState(state *NodeState)
	loadState(state NodeState) error
}

// Interfaces is an ordered, keyed collection of node interfaces.
type Interfaces struct {
	keys  []string
	items map[string]*NodeInterface
}

// Get returns the interface stored under key, or nil.
func (i *Interfaces) Get(key string) *NodeInterface {
	return i.items[key]
}

// Keys returns the keys in insertion order.
func (i *Interfaces) Keys() []string {
	result := make([]string, len(i.keys))
	copy(result, i.keys)
	return result
}

// Len returns the number of interfaces.
func (i *Interfaces) Len() int {
	return len(i.keys)
}

// All returns the interfaces in insertion order.
func (i *Interfaces) All() []*NodeInterface {
	result := make([]*NodeInterface, len(i.keys))
	for j, key := range i.keys {
		result[j] = i.items[key]
	}
	return result
}

// KeyOf returns the key of the interface with the given ID.
func (i *Interfaces) KeyOf(id string) (string, bool) {
	for _, key := range i.keys {
		if i.items[key].id == id {
			return key, true
		}
	}
	return "", false
}

// Contains returns true if the interface is part of the collection.
func (i *Interfaces) Contains(intf *NodeInterface) bool {
	for _, item := range i.items {
		if item == intf {
			return true
		}
	}
	return false
}

func (i *Interfaces) set(key string, intf *NodeInterface) {
	if i.items == nil {
		i.items = map[string]*NodeInterface{}
	}
	if _, ok := i.items[key]; !ok {
		i.keys = append(i.keys, key)
	}
	i.items[key] = intf
}

func (i *Interfaces) remove(key string) {
	if _, ok := i.items[key]; !ok {
		return
	}
	delete(i.items, key)
	for j, k := range i.keys {
		if k == key {
			i.keys = append(i.keys[:j:j], i.keys[j+1:]...)
			return
		}
	}
}

// BaseNode implements the bookkeeping shared by every node type.
type BaseNode struct {
	self      Node
	id        string
	nodeType  string
	title     string
	inputs    Interfaces
	outputs   Interfaces
	calculate CalculateFunc
	graph     *Graph

	events NodeEvents
	hooks  NodeHooks
}

// Init sets up the base node. self must be the node embedding this BaseNode.
func (n *BaseNode) Init(self Node, nodeType string, title string) {
	n.self = self
	n.id = uuid.NewString()
	n.nodeType = nodeType
	n.title = title
}

func (n *BaseNode) base() *BaseNode {
	return n
}

func (n *BaseNode) ID() string {
	return n.id
}

func (n *BaseNode) Type() string {
	return n.nodeType
}

func (n *BaseNode) Title() string {
	return n.title
}

func (n *BaseNode) SetTitle(title string) bool {
	if title == n.title {
		return true
	}
	change := TitleChange{Node: n.self, OldTitle: n.title, NewTitle: title}
	if n.events.BeforeTitleChanged.Emit(change) {
		return false
	}
	n.title = title
	n.events.TitleChanged.Emit(change)
	return true
}

func (n *BaseNode) Inputs() *Interfaces {
	return &n.inputs
}

func (n *BaseNode) Outputs() *Interfaces {
	return &n.outputs
}

func (n *BaseNode) Calculation() CalculateFunc {
	return n.calculate
}

// SetCalculation sets the calculation function. Nil removes it.
func (n *BaseNode) SetCalculation(calculate CalculateFunc) {
	n.calculate = calculate
}

func (n *BaseNode) Graph() *Graph {
	return n.graph
}

func (n *BaseNode) Events() *NodeEvents {
	return &n.events
}

func (n *BaseNode) Hooks() *NodeHooks {
	return &n.hooks
}

func (n *BaseNode) OnPlaced() {}

func (n *BaseNode) OnDestroy() {}

// AddInput attaches a new input under key. It returns false if the key is taken or a listener prevented it.
func (n *BaseNode) AddInput(key string, intf *NodeInterface) bool {
	return n.addInterface(&n.inputs, true, key, intf)
}

// AddOutput attaches a new output under key. It returns false if the key is taken or a listener prevented it.
func (n *BaseNode) AddOutput(key string, intf *NodeInterface) bool {
	return n.addInterface(&n.outputs, false, key, intf)
}

// RemoveInput detaches the input stored under key, removing its connections through the owning graph.
func (n *BaseNode) RemoveInput(key string) (bool, error) {
	return n.removeInterface(&n.inputs, true, key)
}

// RemoveOutput detaches the output stored under key, removing its connections through the owning graph.
func (n *BaseNode) RemoveOutput(key string) (bool, error) {
	return n.removeInterface(&n.outputs, false, key)
}

func (n *BaseNode) addInterface(collection *Interfaces, isInput bool, key string, intf *NodeInterface) bool {
	if intf == nil || collection.Get(key) != nil {
		return false
	}
	change := InterfaceChange{Node: n.self, Key: key, Interface: intf}
	before, after := &n.events.BeforeAddOutput, &n.events.AddOutput
	if isInput {
		before, after = &n.events.BeforeAddInput, &n.events.AddInput
	}
	if before.Emit(change) {
		return false
	}
	intf.attach(n.id, isInput)
	intf.events.SetValue.Subscribe(n, func(value any) {
		n.events.Update.Emit(NodeUpdate{Node: n.self, Interface: intf, Value: value})
	})
	collection.set(key, intf)
	after.Emit(change)
	return true
}

func (n *BaseNode) removeInterface(collection *Interfaces, isInput bool, key string) (bool, error) {
	intf := collection.Get(key)
	if intf == nil {
		return false, nil
	}
	change := InterfaceChange{Node: n.self, Key: key, Interface: intf}
	before, after := &n.events.BeforeRemoveOutput, &n.events.RemoveOutput
	if isInput {
		before, after = &n.events.BeforeRemoveInput, &n.events.RemoveInput
	}
	if before.Emit(change) {
		return false, nil
	}
	if intf.ConnectionCount() > 0 {
		if n.graph == nil {
			return false, fmt.Errorf(
				"cannot remove interface %s of node %s (%w)",
				key,
				n.id,
				ErrInterfaceConnectedWithoutGraph,
			)
		}
		for _, c := range n.graph.ConnectionsOf(intf) {
			if !n.graph.RemoveConnection(c) {
				return false, nil
			}
		}
	}
	intf.events.SetValue.Unsubscribe(n)
	collection.remove(key)
	after.Emit(change)
	return true, nil
}

// Save returns the serialized node state, passed through the AfterSave hook.
func (n *BaseNode) Save() NodeState {
	state := NodeState{
		Type:    n.nodeType,
		ID:      n.id,
		Title:   n.title,
		Inputs:  saveInterfaces(&n.inputs),
		Outputs: saveInterfaces(&n.outputs),
	}
	if ext, ok := n.self.(stateExtender); ok {
		ext.saveState(&state)
	}
	return n.hooks.AfterSave.Execute(state)
}

// Load restores the node from its serialized state. Interfaces are matched by key; unknown keys are ignored.
func (n *BaseNode) Load(state NodeState) error {
	state = n.hooks.BeforeLoad.Execute(state)
	if ext, ok := n.self.(stateExtender); ok {
		if err := ext.loadState(state); err != nil {
			return fmt.Errorf("failed to load node %s of type %s (%w)", n.id, n.nodeType, err)
		}
	}
	if state.ID != "" {
		n.id = state.ID
	}
	if state.Title != "" {
		n.title = state.Title
	}
	for key, s := range state.Inputs {
		if intf := n.inputs.Get(key); intf != nil {
			intf.Load(s)
		}
	}
	for key, s := range state.Outputs {
		if intf := n.outputs.Get(key); intf != nil {
			intf.Load(s)
		}
	}
	for _, intf := range n.inputs.items {
		intf.attach(n.id, true)
	}
	for _, intf := range n.outputs.items {
		intf.attach(n.id, false)
	}
	n.events.Loaded.Emit(n.self)
	return nil
}

func saveInterfaces(collection *Interfaces) map[string]InterfaceState {
	result := make(map[string]InterfaceState, collection.Len())
	for _, key := range collection.keys {
		result[key] = collection.items[key].Save()
	}
	return result
}

// InterfaceDefinition declares one interface of a defined node. New is called once per node instance.
type InterfaceDefinition struct {
	Key string
	New func() *NodeInterface
}

// NodeDefinition declares a node type with a fixed set of interfaces.
type NodeDefinition struct {
	Type      string
	Title     string
	Inputs    []InterfaceDefinition
	Outputs   []InterfaceDefinition
	Calculate CalculateFunc
}

// DefinedNode is the node created from a NodeDefinition.
type DefinedNode struct {
	BaseNode
}

// New creates a node instance from the definition.
func (d NodeDefinition) New() *DefinedNode {
	n := &DefinedNode{}
	n.Init(n, d.Type, d.Title)
	for _, input := range d.Inputs {
		n.AddInput(input.Key, input.New())
	}
	for _, output := range d.Outputs {
		n.AddOutput(output.Key, output.New())
	}
	n.SetCalculation(d.Calculate)
	return n
}

// Factory returns a NodeFactory for registering the definition with an editor.
func (d NodeDefinition) Factory() NodeFactory {
	return func() Node {
		return d.New()
	}
}

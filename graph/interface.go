package graph

import (
	"github.com/google/uuid"
	"go.flow.arcalot.io/nodegraph/event"
)

// InterfaceEvents are the events a NodeInterface emits.
type InterfaceEvents struct {
	// BeforeSetValue can veto a value change.
	BeforeSetValue event.PreventableEvent[any]
	// SetValue is emitted after the value changed.
	SetValue event.BaseEvent[any]
	// SetConnectionCount is emitted whenever a connection is constructed or destructed on this interface.
	SetConnectionCount event.BaseEvent[int]
	// Updated is emitted when the name or the flags change.
	Updated event.BaseEvent[*NodeInterface]
}

// InterfaceHooks transform the interface state on save and load.
type InterfaceHooks struct {
	Load event.SequentialHook[InterfaceState]
	Save event.SequentialHook[InterfaceState]
}

// NodeInterface is a single input or output port of a node, holding a value.
//
// A proxy interface (see GraphNode) reads its forwardable fields (Type, AllowMultipleConnections) from the interface
// returned by its resolver, if any. Its identity, value, connection count, events, hooks, and visibility flags are
// always its own.
type NodeInterface struct {
	id                       string
	name                     string
	value                    any
	typeName                 string
	isInput                  bool
	attached                 bool
	nodeID                   string
	templateID               string
	connectionCount          int
	hidden                   bool
	port                     bool
	allowMultipleConnections bool
	resolveTarget            func() *NodeInterface

	events InterfaceEvents
	hooks  InterfaceHooks
}

// NewInterface creates a new, unattached interface with a random ID.
func NewInterface(name string, value any) *NodeInterface {
	return &NodeInterface{
		id:    uuid.NewString(),
		name:  name,
		value: value,
		port:  true,
	}
}

// NewProxyInterface creates an interface that forwards its Type and AllowMultipleConnections reads to the interface
// returned by resolveTarget. A nil result falls back to the local fields.
func NewProxyInterface(name string, resolveTarget func() *NodeInterface) *NodeInterface {
	intf := NewInterface(name, nil)
	intf.resolveTarget = resolveTarget
	return intf
}

// WithType sets the type tag consumed by value conversion.
func (i *NodeInterface) WithType(typeName string) *NodeInterface {
	i.typeName = typeName
	return i
}

// WithHidden marks the interface as hidden.
func (i *NodeInterface) WithHidden(hidden bool) *NodeInterface {
	i.hidden = hidden
	i.events.Updated.Emit(i)
	return i
}

// WithPort sets whether the interface is meant to be connected. Non-port interfaces are plain settings.
func (i *NodeInterface) WithPort(port bool) *NodeInterface {
	i.port = port
	i.events.Updated.Emit(i)
	return i
}

// WithMultipleConnections allows an input to receive more than one connection. Its value is then the list of all
// incoming values.
func (i *NodeInterface) WithMultipleConnections(allow bool) *NodeInterface {
	i.allowMultipleConnections = allow
	i.events.Updated.Emit(i)
	return i
}

// ID returns the interface ID, unique within a graph.
func (i *NodeInterface) ID() string {
	return i.id
}

// Name returns the display name.
func (i *NodeInterface) Name() string {
	return i.name
}

// SetName changes the display name.
func (i *NodeInterface) SetName(name string) {
	if i.name == name {
		return
	}
	i.name = name
	i.events.Updated.Emit(i)
}

// Value returns the locally stored value.
func (i *NodeInterface) Value() any {
	return i.value
}

// SetValue changes the value unless a BeforeSetValue listener prevents it. It returns false when prevented.
func (i *NodeInterface) SetValue(value any) bool {
	if i.events.BeforeSetValue.Emit(value) {
		return false
	}
	i.value = value
	i.events.SetValue.Emit(value)
	return true
}

// IsInput returns true for input interfaces. It is only meaningful once the interface is attached to a node.
func (i *NodeInterface) IsInput() bool {
	return i.isInput
}

// NodeID returns the ID of the owning node.
func (i *NodeInterface) NodeID() string {
	return i.nodeID
}

// TemplateID returns the ID of the template interface this interface was cloned from, if any.
func (i *NodeInterface) TemplateID() string {
	return i.templateID
}

// ConnectionCount returns the number of connections attached to this interface.
func (i *NodeInterface) ConnectionCount() int {
	return i.connectionCount
}

// Hidden returns true if the interface should not be shown.
func (i *NodeInterface) Hidden() bool {
	return i.hidden
}

// Port returns true if the interface can be connected.
func (i *NodeInterface) Port() bool {
	return i.port
}

// Type returns the type tag, forwarded to the proxy target if there is one.
func (i *NodeInterface) Type() string {
	if target := i.Target(); target != nil {
		return target.Type()
	}
	return i.typeName
}

// AllowMultipleConnections returns true if the input accepts more than one connection, forwarded to the proxy target
// if there is one.
func (i *NodeInterface) AllowMultipleConnections() bool {
	if target := i.Target(); target != nil {
		return target.AllowMultipleConnections()
	}
	return i.allowMultipleConnections
}

// IsProxy returns true for proxy interfaces.
func (i *NodeInterface) IsProxy() bool {
	return i.resolveTarget != nil
}

// Target returns the concrete interface a proxy currently forwards to, or nil.
func (i *NodeInterface) Target() *NodeInterface {
	if i.resolveTarget == nil {
		return nil
	}
	target := i.resolveTarget()
	if target == i {
		return nil
	}
	return target
}

// Events returns the interface events.
func (i *NodeInterface) Events() *InterfaceEvents {
	return &i.events
}

// Hooks returns the interface hooks.
func (i *NodeInterface) Hooks() *InterfaceHooks {
	return &i.hooks
}

// Save returns the serialized state.
func (i *NodeInterface) Save() InterfaceState {
	return i.hooks.Save.Execute(InterfaceState{
		ID:         i.id,
		Value:      i.value,
		TemplateID: i.templateID,
	})
}

// Load restores the serialized state. An empty ID keeps the current one.
func (i *NodeInterface) Load(state InterfaceState) {
	state = i.hooks.Load.Execute(state)
	if state.ID != "" {
		i.id = state.ID
	}
	i.templateID = state.TemplateID
	i.value = state.Value
}

// attach records the owner. The direction is fixed by the first attachment.
func (i *NodeInterface) attach(nodeID string, isInput bool) {
	if !i.attached {
		i.isInput = isInput
		i.attached = true
	}
	i.nodeID = nodeID
}

func (i *NodeInterface) setConnectionCount(count int) {
	if count < 0 {
		count = 0
	}
	i.connectionCount = count
	i.events.SetConnectionCount.Emit(count)
}

package graph

import "go.flow.arcalot.io/nodegraph/event"

// InterfaceChange describes an interface being added to or removed from a node.
type InterfaceChange struct {
	Node      Node
	Key       string
	Interface *NodeInterface
}

// TitleChange describes a node title change.
type TitleChange struct {
	Node     Node
	OldTitle string
	NewTitle string
}

// NodeUpdate is emitted when a value of one of the node's interfaces changed. Interface is nil when the node changed
// as a whole (for example when a graph node re-created its sub-graph).
type NodeUpdate struct {
	Node      Node
	Interface *NodeInterface
	Value     any
}

// NodeEvents are the events a node emits. A graph aggregates the events of all its nodes, and the editor aggregates
// those of all graphs.
type NodeEvents struct {
	BeforeAddInput     event.PreventableEvent[InterfaceChange]
	AddInput           event.BaseEvent[InterfaceChange]
	BeforeRemoveInput  event.PreventableEvent[InterfaceChange]
	RemoveInput        event.BaseEvent[InterfaceChange]
	BeforeAddOutput    event.PreventableEvent[InterfaceChange]
	AddOutput          event.BaseEvent[InterfaceChange]
	BeforeRemoveOutput event.PreventableEvent[InterfaceChange]
	RemoveOutput       event.BaseEvent[InterfaceChange]
	BeforeTitleChanged event.PreventableEvent[TitleChange]
	TitleChanged       event.BaseEvent[TitleChange]
	Update             event.BaseEvent[NodeUpdate]
	Loaded             event.BaseEvent[Node]
}

// Attach forwards every event of source to the listeners of e.
func (e *NodeEvents) Attach(source *NodeEvents) {
	e.BeforeAddInput.Attach(&source.BeforeAddInput)
	e.AddInput.Attach(&source.AddInput)
	e.BeforeRemoveInput.Attach(&source.BeforeRemoveInput)
	e.RemoveInput.Attach(&source.RemoveInput)
	e.BeforeAddOutput.Attach(&source.BeforeAddOutput)
	e.AddOutput.Attach(&source.AddOutput)
	e.BeforeRemoveOutput.Attach(&source.BeforeRemoveOutput)
	e.RemoveOutput.Attach(&source.RemoveOutput)
	e.BeforeTitleChanged.Attach(&source.BeforeTitleChanged)
	e.TitleChanged.Attach(&source.TitleChanged)
	e.Update.Attach(&source.Update)
	e.Loaded.Attach(&source.Loaded)
}

// Detach reverses Attach.
func (e *NodeEvents) Detach(source *NodeEvents) {
	e.BeforeAddInput.Detach(&source.BeforeAddInput)
	e.AddInput.Detach(&source.AddInput)
	e.BeforeRemoveInput.Detach(&source.BeforeRemoveInput)
	e.RemoveInput.Detach(&source.RemoveInput)
	e.BeforeAddOutput.Detach(&source.BeforeAddOutput)
	e.AddOutput.Detach(&source.AddOutput)
	e.BeforeRemoveOutput.Detach(&source.BeforeRemoveOutput)
	e.RemoveOutput.Detach(&source.RemoveOutput)
	e.BeforeTitleChanged.Detach(&source.BeforeTitleChanged)
	e.TitleChanged.Detach(&source.TitleChanged)
	e.Update.Detach(&source.Update)
	e.Loaded.Detach(&source.Loaded)
}

// NodeHooks transform the node state on load and save.
type NodeHooks struct {
	BeforeLoad event.SequentialHook[NodeState]
	AfterSave  event.SequentialHook[NodeState]
}

// NodeEvent describes a node being added to or removed from a graph.
type NodeEvent struct {
	Graph *Graph
	Node  Node
}

// ConnectionEvent describes a connection being added to or removed from a graph.
type ConnectionEvent struct {
	Graph      *Graph
	Connection *Connection
}

// ConnectionProposal is a requested edge, already normalized to output→input when passed to validity hooks.
type ConnectionProposal struct {
	Graph *Graph
	From  *NodeInterface
	To    *NodeInterface
}

// CheckResult is the answer of one connection validity hook.
type CheckResult struct {
	Allowed bool
	// ConnectionsInDanger are existing connections to remove if the proposal is accepted.
	ConnectionsInDanger []*Connection
}

// GraphEvents are the structural events of a graph.
type GraphEvents struct {
	BeforeAddNode          event.PreventableEvent[NodeEvent]
	AddNode                event.BaseEvent[NodeEvent]
	BeforeRemoveNode       event.PreventableEvent[NodeEvent]
	RemoveNode             event.BaseEvent[NodeEvent]
	BeforeAddConnection    event.PreventableEvent[ConnectionProposal]
	AddConnection          event.BaseEvent[ConnectionEvent]
	CheckConnection        event.BaseEvent[ConnectionProposal]
	BeforeRemoveConnection event.PreventableEvent[ConnectionEvent]
	RemoveConnection       event.BaseEvent[ConnectionEvent]
}

// Attach forwards every event of source to the listeners of e.
func (e *GraphEvents) Attach(source *GraphEvents) {
	e.BeforeAddNode.Attach(&source.BeforeAddNode)
	e.AddNode.Attach(&source.AddNode)
	e.BeforeRemoveNode.Attach(&source.BeforeRemoveNode)
	e.RemoveNode.Attach(&source.RemoveNode)
	e.BeforeAddConnection.Attach(&source.BeforeAddConnection)
	e.AddConnection.Attach(&source.AddConnection)
	e.CheckConnection.Attach(&source.CheckConnection)
	e.BeforeRemoveConnection.Attach(&source.BeforeRemoveConnection)
	e.RemoveConnection.Attach(&source.RemoveConnection)
}

// Detach reverses Attach.
func (e *GraphEvents) Detach(source *GraphEvents) {
	e.BeforeAddNode.Detach(&source.BeforeAddNode)
	e.AddNode.Detach(&source.AddNode)
	e.BeforeRemoveNode.Detach(&source.BeforeRemoveNode)
	e.RemoveNode.Detach(&source.RemoveNode)
	e.BeforeAddConnection.Detach(&source.BeforeAddConnection)
	e.AddConnection.Detach(&source.AddConnection)
	e.CheckConnection.Detach(&source.CheckConnection)
	e.BeforeRemoveConnection.Detach(&source.BeforeRemoveConnection)
	e.RemoveConnection.Detach(&source.RemoveConnection)
}

// GraphHooks extend graph save, load, and connection validation.
type GraphHooks struct {
	Save event.SequentialHook[GraphState]
	Load event.SequentialHook[GraphState]
	// CheckConnection runs every subscriber against the same proposal. A single rejection rejects the proposal.
	CheckConnection event.ParallelHook[ConnectionProposal, CheckResult]
}

// Attach makes the listeners of h part of the hooks of source.
func (h *GraphHooks) Attach(source *GraphHooks) {
	h.Save.Attach(&source.Save)
	h.Load.Attach(&source.Load)
	h.CheckConnection.Attach(&source.CheckConnection)
}

// Detach reverses Attach.
func (h *GraphHooks) Detach(source *GraphHooks) {
	h.Save.Detach(&source.Save)
	h.Load.Detach(&source.Load)
	h.CheckConnection.Detach(&source.CheckConnection)
}

// TemplateEvents are the events of a graph template.
type TemplateEvents struct {
	NameChanged event.BaseEvent[*GraphTemplate]
	Updated     event.BaseEvent[*GraphTemplate]
}

// Attach forwards every event of source to the listeners of e.
func (e *TemplateEvents) Attach(source *TemplateEvents) {
	e.NameChanged.Attach(&source.NameChanged)
	e.Updated.Attach(&source.Updated)
}

// Detach reverses Attach.
func (e *TemplateEvents) Detach(source *TemplateEvents) {
	e.NameChanged.Detach(&source.NameChanged)
	e.Updated.Detach(&source.Updated)
}

// TemplateHooks transform the template state on load and save.
type TemplateHooks struct {
	BeforeLoad event.SequentialHook[TemplateState]
	AfterSave  event.SequentialHook[TemplateState]
}

// EditorEvents are the events of the editor itself.
type EditorEvents struct {
	BeforeRegisterNodeType    event.PreventableEvent[NodeTypeInfo]
	RegisterNodeType          event.BaseEvent[NodeTypeInfo]
	BeforeUnregisterNodeType  event.PreventableEvent[string]
	UnregisterNodeType        event.BaseEvent[string]
	BeforeAddGraphTemplate    event.PreventableEvent[*GraphTemplate]
	AddGraphTemplate          event.BaseEvent[*GraphTemplate]
	BeforeRemoveGraphTemplate event.PreventableEvent[*GraphTemplate]
	RemoveGraphTemplate       event.BaseEvent[*GraphTemplate]
	RegisterGraph             event.BaseEvent[*Graph]
	UnregisterGraph           event.BaseEvent[*Graph]
	SwitchGraph               event.BaseEvent[*Graph]
	Loaded                    event.BaseEvent[*Editor]
}

// EditorHooks transform the editor state on load and save.
type EditorHooks struct {
	Load event.SequentialHook[EditorState]
	Save event.SequentialHook[EditorState]
}

package graph

import (
	"fmt"

	log "go.arcalot.io/log/v2"
)

// SubgraphCategory is the registry category of graph node types.
const SubgraphCategory = "Subgraphs"

// NodeTypeOptions are the display options of a registered node type.
type NodeTypeOptions struct {
	Category string
	Title    string
}

// NodeTypeInfo describes a registered node type.
type NodeTypeInfo struct {
	Type     string
	Category string
	Title    string
	Factory  NodeFactory
}

// Editor owns the root graph, every sub-graph instantiated from templates, the templates themselves, and the node
// type registry. It aggregates the events of every graph, node, and template it owns.
type Editor struct {
	logger         log.Logger
	graph          *Graph
	displayedGraph *Graph
	graphs         []*Graph
	templates      []*GraphTemplate
	nodeTypes      map[string]NodeTypeInfo
	nodeTypeOrder  []string
	loading        bool

	events         EditorEvents
	hooks          EditorHooks
	graphEvents    GraphEvents
	graphHooks     GraphHooks
	nodeEvents     NodeEvents
	templateEvents TemplateEvents
}

// NewEditor creates an editor with an empty root graph and the graph marker node types registered.
func NewEditor(logger log.Logger) (*Editor, error) {
	if logger == nil {
		return nil, fmt.Errorf("bug: no logger passed to NewEditor")
	}
	e := &Editor{
		logger:    logger.WithLabel("source", "editor"),
		nodeTypes: map[string]NodeTypeInfo{},
	}
	e.RegisterNodeType(func() Node { return NewGraphInputNode() }, NodeTypeOptions{Category: SubgraphCategory})
	e.RegisterNodeType(func() Node { return NewGraphOutputNode() }, NodeTypeOptions{Category: SubgraphCategory})
	e.graph = NewGraph(e, nil)
	e.displayedGraph = e.graph
	return e, nil
}

// Logger returns the editor logger.
func (e *Editor) Logger() log.Logger {
	return e.logger
}

// Graph returns the root graph.
func (e *Editor) Graph() *Graph {
	return e.graph
}

// DisplayedGraph returns the graph currently being inspected: the root graph or a sub-graph.
func (e *Editor) DisplayedGraph() *Graph {
	return e.displayedGraph
}

// SwitchGraph changes the displayed graph.
func (e *Editor) SwitchGraph(g *Graph) {
	if g == nil || g == e.displayedGraph {
		return
	}
	e.displayedGraph = g
	e.events.SwitchGraph.Emit(g)
}

// Graphs returns every graph registered with the editor, the root graph first.
func (e *Editor) Graphs() []*Graph {
	result := make([]*Graph, len(e.graphs))
	copy(result, e.graphs)
	return result
}

// GraphTemplates returns the templates in insertion order.
func (e *Editor) GraphTemplates() []*GraphTemplate {
	result := make([]*GraphTemplate, len(e.templates))
	copy(result, e.templates)
	return result
}

// GraphTemplate returns the template with the given ID.
func (e *Editor) GraphTemplate(id string) (*GraphTemplate, bool) {
	for _, t := range e.templates {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Loading returns true while Load is running.
func (e *Editor) Loading() bool {
	return e.loading
}

func (e *Editor) Events() *EditorEvents {
	return &e.events
}

func (e *Editor) Hooks() *EditorHooks {
	return &e.hooks
}

// GraphEvents aggregates the events of every registered graph.
func (e *Editor) GraphEvents() *GraphEvents {
	return &e.graphEvents
}

// GraphHooks aggregates the hooks of every registered graph.
func (e *Editor) GraphHooks() *GraphHooks {
	return &e.graphHooks
}

// NodeEvents aggregates the events of every node of every registered graph.
func (e *Editor) NodeEvents() *NodeEvents {
	return &e.nodeEvents
}

// TemplateEvents aggregates the events of every template.
func (e *Editor) TemplateEvents() *TemplateEvents {
	return &e.templateEvents
}

// RegisterNodeType adds a node type to the registry. The type is read from a node created by the factory. The title
// defaults to the title of that node and the category to "default". It returns false if a listener prevented it.
func (e *Editor) RegisterNodeType(factory NodeFactory, options NodeTypeOptions) bool {
	sample := factory()
	info := NodeTypeInfo{
		Type:     sample.Type(),
		Category: options.Category,
		Title:    options.Title,
		Factory:  factory,
	}
	if info.Category == "" {
		info.Category = "default"
	}
	if info.Title == "" {
		info.Title = sample.Title()
	}
	if e.events.BeforeRegisterNodeType.Emit(info) {
		return false
	}
	if _, ok := e.nodeTypes[info.Type]; !ok {
		e.nodeTypeOrder = append(e.nodeTypeOrder, info.Type)
	}
	e.nodeTypes[info.Type] = info
	e.events.RegisterNodeType.Emit(info)
	return true
}

// UnregisterNodeType removes a node type from the registry. Placed nodes of that type are not affected.
func (e *Editor) UnregisterNodeType(nodeType string) bool {
	if _, ok := e.nodeTypes[nodeType]; !ok {
		return false
	}
	if e.events.BeforeUnregisterNodeType.Emit(nodeType) {
		return false
	}
	delete(e.nodeTypes, nodeType)
	for i, t := range e.nodeTypeOrder {
		if t == nodeType {
			e.nodeTypeOrder = append(e.nodeTypeOrder[:i:i], e.nodeTypeOrder[i+1:]...)
			break
		}
	}
	e.events.UnregisterNodeType.Emit(nodeType)
	return true
}

// NodeType looks up a registered node type.
func (e *Editor) NodeType(nodeType string) (NodeTypeInfo, bool) {
	info, ok := e.nodeTypes[nodeType]
	return info, ok
}

// NodeTypes returns every registered node type in registration order.
func (e *Editor) NodeTypes() []NodeTypeInfo {
	result := make([]NodeTypeInfo, 0, len(e.nodeTypeOrder))
	for _, t := range e.nodeTypeOrder {
		result = append(result, e.nodeTypes[t])
	}
	return result
}

func (e *Editor) setNodeTypeTitle(nodeType string, title string) {
	if info, ok := e.nodeTypes[nodeType]; ok {
		info.Title = title
		e.nodeTypes[nodeType] = info
	}
}

// AddGraphTemplate adds a template and registers the graph node type instantiating it. It returns false if a listener
// prevented it or a template with the same ID exists.
func (e *Editor) AddGraphTemplate(t *GraphTemplate) bool {
	if _, ok := e.GraphTemplate(t.id); ok {
		return false
	}
	if e.events.BeforeAddGraphTemplate.Emit(t) {
		return false
	}
	t.editor = e
	e.templates = append(e.templates, t)
	e.templateEvents.Attach(&t.events)
	e.RegisterNodeType(func() Node { return NewGraphNode(t) }, NodeTypeOptions{
		Category: SubgraphCategory,
		Title:    t.name,
	})
	e.events.AddGraphTemplate.Emit(t)
	return true
}

// RemoveGraphTemplate removes every graph node instantiating the template from every graph, unregisters its node
// type, and removes the template.
func (e *Editor) RemoveGraphTemplate(t *GraphTemplate) {
	index := -1
	for i, existing := range e.templates {
		if existing == t {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}
	if e.events.BeforeRemoveGraphTemplate.Emit(t) {
		return
	}
	nodeType := t.NodeType()
	for _, g := range e.Graphs() {
		if g.destroyed {
			continue
		}
		for _, n := range g.Nodes() {
			if n.Type() == nodeType {
				g.RemoveNode(n)
			}
		}
	}
	e.UnregisterNodeType(nodeType)
	e.templates = append(e.templates[:index:index], e.templates[index+1:]...)
	e.templateEvents.Detach(&t.events)
	e.events.RemoveGraphTemplate.Emit(t)
}

// Save serializes the root graph and every template.
func (e *Editor) Save() EditorState {
	state := EditorState{
		Graph:          e.graph.Save(),
		GraphTemplates: make([]TemplateState, 0, len(e.templates)),
	}
	for _, t := range e.templates {
		state.GraphTemplates = append(state.GraphTemplates, t.Save())
	}
	return e.hooks.Save.Execute(state)
}

// Load replaces the templates and the root graph. It never fails; problems are returned as warnings.
func (e *Editor) Load(state EditorState) []string {
	e.loading = true
	defer func() {
		e.loading = false
	}()
	state = e.hooks.Load.Execute(state)

	for i := len(e.templates) - 1; i >= 0; i-- {
		e.RemoveGraphTemplate(e.templates[i])
	}
	var warnings []string
	for _, templateState := range state.GraphTemplates {
		t := NewGraphTemplate(templateState, e)
		if !e.AddGraphTemplate(t) {
			warnings = append(warnings, fmt.Sprintf("Graph template %s was not added", t.id))
		}
	}
	warnings = append(warnings, e.graph.Load(state.Graph)...)
	e.displayedGraph = e.graph
	for _, warning := range warnings {
		e.logger.Warningf("%s", warning)
	}
	e.events.Loaded.Emit(e)
	return warnings
}

func (e *Editor) registerGraph(g *Graph) {
	e.graphs = append(e.graphs, g)
	e.graphEvents.Attach(&g.events)
	e.graphHooks.Attach(&g.hooks)
	e.nodeEvents.Attach(&g.nodeEvents)
	e.events.RegisterGraph.Emit(g)
}

func (e *Editor) unregisterGraph(g *Graph) {
	for i, existing := range e.graphs {
		if existing == g {
			e.graphs = append(e.graphs[:i:i], e.graphs[i+1:]...)
			break
		}
	}
	e.graphEvents.Detach(&g.events)
	e.graphHooks.Detach(&g.hooks)
	e.nodeEvents.Detach(&g.nodeEvents)
	if e.displayedGraph == g {
		e.displayedGraph = e.graph
	}
	e.events.UnregisterGraph.Emit(g)
}

package graph

import (
	"github.com/google/uuid"
)

// DefaultTemplateName is the name of a template created from a graph.
const DefaultTemplateName = "Subgraph"

// GraphTemplate is a reusable blueprint for a sub-graph. Its inputs and outputs are derived from the marker nodes of
// the blueprint.
type GraphTemplate struct {
	id          string
	name        string
	nodes       []NodeState
	connections []ConnectionState
	editor      *Editor

	events TemplateEvents
	hooks  TemplateHooks
}

// NewGraphTemplate creates a template from its serialized state. An empty ID is replaced by a random one.
func NewGraphTemplate(state TemplateState, editor *Editor) *GraphTemplate {
	t := &GraphTemplate{
		id:     uuid.NewString(),
		name:   DefaultTemplateName,
		editor: editor,
	}
	t.Load(state)
	return t
}

// TemplateFromGraph creates a template with a new ID from the current contents of a graph.
func TemplateFromGraph(g *Graph, editor *Editor) *GraphTemplate {
	state := g.Save()
	state.ID = uuid.NewString()
	return NewGraphTemplate(TemplateState{GraphState: state, Name: DefaultTemplateName}, editor)
}

func (t *GraphTemplate) ID() string {
	return t.id
}

func (t *GraphTemplate) Name() string {
	return t.name
}

// SetName renames the template and the node type instantiating it.
func (t *GraphTemplate) SetName(name string) {
	if name == t.name {
		return
	}
	t.name = name
	if t.editor != nil {
		t.editor.setNodeTypeTitle(t.NodeType(), name)
	}
	t.events.NameChanged.Emit(t)
}

// NodeType returns the type of the graph nodes instantiating this template.
func (t *GraphTemplate) NodeType() string {
	return GraphNodeTypePrefix + t.id
}

func (t *GraphTemplate) Editor() *Editor {
	return t.editor
}

func (t *GraphTemplate) Events() *TemplateEvents {
	return &t.events
}

func (t *GraphTemplate) Hooks() *TemplateHooks {
	return &t.hooks
}

// Nodes returns a copy of the blueprint nodes.
func (t *GraphTemplate) Nodes() []NodeState {
	return cloneNodeStates(t.nodes)
}

// Connections returns a copy of the blueprint connections.
func (t *GraphTemplate) Connections() []ConnectionState {
	result := make([]ConnectionState, len(t.connections))
	copy(result, t.connections)
	return result
}

// Inputs returns the graph inputs declared by the input marker nodes of the blueprint.
func (t *GraphTemplate) Inputs() []GraphInterface {
	return t.markers(GraphInputNodeType, markerPlaceholderKey)
}

// Outputs returns the graph outputs declared by the output marker nodes of the blueprint.
func (t *GraphTemplate) Outputs() []GraphInterface {
	return t.markers(GraphOutputNodeType, markerOutputKey)
}

func (t *GraphTemplate) markers(nodeType string, outputKey string) []GraphInterface {
	var result []GraphInterface
	for _, n := range t.nodes {
		if n.Type != nodeType {
			continue
		}
		result = append(result, GraphInterface{
			ID:              n.GraphInterfaceID,
			Name:            nameOf(n.Inputs[markerNameKey].Value),
			NodeID:          n.ID,
			NodeInterfaceID: n.Outputs[outputKey].ID,
		})
	}
	return result
}

// Update replaces the blueprint and notifies every graph node instantiating the template.
func (t *GraphTemplate) Update(state GraphState) {
	t.nodes = cloneNodeStates(state.Nodes)
	t.connections = append([]ConnectionState(nil), state.Connections...)
	t.events.Updated.Emit(t)
}

// Load restores the template from its serialized state, passed through the BeforeLoad hook.
func (t *GraphTemplate) Load(state TemplateState) {
	state = t.hooks.BeforeLoad.Execute(state)
	if state.ID != "" {
		t.id = state.ID
	}
	if state.Name != "" {
		t.name = state.Name
	}
	t.nodes = cloneNodeStates(state.Nodes)
	t.connections = append([]ConnectionState(nil), state.Connections...)
}

// Save serializes the template and passes the result through the AfterSave hook.
func (t *GraphTemplate) Save() TemplateState {
	return t.hooks.AfterSave.Execute(TemplateState{
		GraphState: GraphState{
			ID:          t.id,
			Nodes:       cloneNodeStates(t.nodes),
			Connections: t.Connections(),
			Inputs:      t.Inputs(),
			Outputs:     t.Outputs(),
		},
		Name: t.name,
	})
}

// CreateGraph instantiates the blueprint into target, or into a new graph if target is nil. Every node, interface,
// and connection ID is replaced by a fresh one; interfaces keep the ID they were cloned from as template ID. A
// reference that cannot be mapped returns an ErrTemplateCorrupted and leaves target untouched.
func (t *GraphTemplate) CreateGraph(target *Graph) (*Graph, error) {
	idMap := map[string]string{}
	createNewID := func(oldID string) string {
		newID := uuid.NewString()
		idMap[oldID] = newID
		return newID
	}
	getNewID := func(oldID string) (string, error) {
		newID, ok := idMap[oldID]
		if !ok {
			return "", &ErrTemplateCorrupted{TemplateID: t.id, ID: oldID}
		}
		return newID, nil
	}
	remapInterfaces := func(states map[string]InterfaceState) map[string]InterfaceState {
		result := make(map[string]InterfaceState, len(states))
		for key, s := range states {
			result[key] = InterfaceState{
				ID:         createNewID(s.ID),
				Value:      s.Value,
				TemplateID: s.ID,
			}
		}
		return result
	}

	nodes := make([]NodeState, len(t.nodes))
	for i, n := range t.nodes {
		// Nested graph states carry the IDs of a single instance and are rebuilt from their own template instead.
		nodes[i] = NodeState{
			Type:             n.Type,
			ID:               createNewID(n.ID),
			Title:            n.Title,
			Inputs:           remapInterfaces(n.Inputs),
			Outputs:          remapInterfaces(n.Outputs),
			GraphInterfaceID: n.GraphInterfaceID,
		}
	}

	connections := make([]ConnectionState, len(t.connections))
	for i, c := range t.connections {
		from, err := getNewID(c.From)
		if err != nil {
			return nil, err
		}
		to, err := getNewID(c.To)
		if err != nil {
			return nil, err
		}
		connections[i] = ConnectionState{
			ID:   createNewID(c.ID),
			From: from,
			To:   to,
		}
	}

	remapGraphInterfaces := func(interfaces []GraphInterface) ([]GraphInterface, error) {
		result := make([]GraphInterface, len(interfaces))
		for i, gi := range interfaces {
			nodeID, err := getNewID(gi.NodeID)
			if err != nil {
				return nil, err
			}
			nodeInterfaceID, err := getNewID(gi.NodeInterfaceID)
			if err != nil {
				return nil, err
			}
			result[i] = GraphInterface{
				ID:              gi.ID,
				Name:            gi.Name,
				NodeID:          nodeID,
				NodeInterfaceID: nodeInterfaceID,
			}
		}
		return result, nil
	}
	inputs, err := remapGraphInterfaces(t.Inputs())
	if err != nil {
		return nil, err
	}
	outputs, err := remapGraphInterfaces(t.Outputs())
	if err != nil {
		return nil, err
	}

	if target == nil {
		target = NewGraph(t.editor, t)
	} else {
		target.template = t
	}
	warnings := target.Load(GraphState{
		ID:          target.ID(),
		Nodes:       nodes,
		Connections: connections,
		Inputs:      inputs,
		Outputs:     outputs,
	})
	if len(warnings) > 0 && t.editor != nil {
		for _, warning := range warnings {
			t.editor.logger.Warningf("Instantiating template %s: %s", t.id, warning)
		}
	}
	return target, nil
}

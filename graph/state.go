package graph

// InterfaceState is the serialized form of a NodeInterface.
type InterfaceState struct {
	ID         string `json:"id" yaml:"id"`
	Value      any    `json:"value" yaml:"value"`
	TemplateID string `json:"templateId,omitempty" yaml:"templateId,omitempty"`
}

// NodeState is the serialized form of a node. GraphInterfaceID is only used by the graph input and output marker
// nodes, GraphState only by graph nodes.
type NodeState struct {
	Type             string                    `json:"type" yaml:"type"`
	ID               string                    `json:"id" yaml:"id"`
	Title            string                    `json:"title" yaml:"title"`
	Inputs           map[string]InterfaceState `json:"inputs" yaml:"inputs"`
	Outputs          map[string]InterfaceState `json:"outputs" yaml:"outputs"`
	GraphInterfaceID string                    `json:"graphInterfaceId,omitempty" yaml:"graphInterfaceId,omitempty"`
	GraphState       *GraphState               `json:"graphState,omitempty" yaml:"graphState,omitempty"`
}

// ConnectionState is the serialized form of a connection: its ID and the IDs of both endpoints.
type ConnectionState struct {
	ID   string `json:"id" yaml:"id"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// GraphInterface describes an input or output a graph exposes through a marker node.
type GraphInterface struct {
	// ID is the stable graph interface ID of the marker node.
	ID string `json:"id" yaml:"id"`
	// Name is the display name configured on the marker node.
	Name string `json:"name" yaml:"name"`
	// NodeID is the ID of the marker node.
	NodeID string `json:"nodeId" yaml:"nodeId"`
	// NodeInterfaceID is the ID of the marker node interface carrying the value.
	NodeInterfaceID string `json:"nodeInterfaceId" yaml:"nodeInterfaceId"`
}

// GraphState is the serialized form of a graph.
type GraphState struct {
	ID          string            `json:"id" yaml:"id"`
	Nodes       []NodeState       `json:"nodes" yaml:"nodes"`
	Connections []ConnectionState `json:"connections" yaml:"connections"`
	Inputs      []GraphInterface  `json:"inputs" yaml:"inputs"`
	Outputs     []GraphInterface  `json:"outputs" yaml:"outputs"`
}

// TemplateState is the serialized form of a graph template.
type TemplateState struct {
	GraphState `yaml:",inline"`
	Name       string `json:"name" yaml:"name"`
}

// EditorState is the serialized form of an editor: the root graph and every template.
type EditorState struct {
	Graph          GraphState      `json:"graph" yaml:"graph"`
	GraphTemplates []TemplateState `json:"graphTemplates" yaml:"graphTemplates"`
}

func cloneInterfaceStates(states map[string]InterfaceState) map[string]InterfaceState {
	if states == nil {
		return nil
	}
	result := make(map[string]InterfaceState, len(states))
	for k, v := range states {
		result[k] = v
	}
	return result
}

func cloneNodeStates(states []NodeState) []NodeState {
	result := make([]NodeState, len(states))
	for i, s := range states {
		s.Inputs = cloneInterfaceStates(s.Inputs)
		s.Outputs = cloneInterfaceStates(s.Outputs)
		result[i] = s
	}
	return result
}

package graph_test

import (
	"errors"
	"testing"

	"go.arcalot.io/assert"
	"go.flow.arcalot.io/nodegraph/graph"
)

// newPassThroughTemplate builds a template of graph-input → pass → graph-output and registers it.
func newPassThroughTemplate(t *testing.T, editor *graph.Editor) *graph.GraphTemplate {
	blueprint := graph.NewGraph(nil, nil)
	in := graph.NewGraphInputNode()
	pass := passNode.New()
	out := graph.NewGraphOutputNode()
	blueprint.AddNode(in)
	blueprint.AddNode(pass)
	blueprint.AddNode(out)
	assert.NotNil(t, blueprint.AddConnection(in.Outputs().Get("placeholder"), pass.Inputs().Get("in")))
	assert.NotNil(t, blueprint.AddConnection(pass.Outputs().Get("out"), out.Inputs().Get("placeholder")))

	template := graph.TemplateFromGraph(blueprint, editor)
	template.SetName("Pass through")
	assert.Equals(t, editor.AddGraphTemplate(template), true)
	return template
}

func collectIDs(g *graph.Graph) map[string]struct{} {
	ids := map[string]struct{}{}
	for _, n := range g.Nodes() {
		ids[n.ID()] = struct{}{}
		for _, intf := range n.Inputs().All() {
			ids[intf.ID()] = struct{}{}
		}
		for _, intf := range n.Outputs().All() {
			ids[intf.ID()] = struct{}{}
		}
	}
	for _, c := range g.Connections() {
		ids[c.ID()] = struct{}{}
	}
	return ids
}

// topology describes the connections of a graph by node type and interface key.
func topology(g *graph.Graph) []string {
	var result []string
	for _, c := range g.Connections() {
		fromNode := g.NodeOfInterface(c.From())
		toNode := g.NodeOfInterface(c.To())
		fromKey, _ := fromNode.Outputs().KeyOf(c.From().ID())
		toKey, _ := toNode.Inputs().KeyOf(c.To().ID())
		result = append(result, fromNode.Type()+"."+fromKey+"->"+toNode.Type()+"."+toKey)
	}
	return result
}

func TestGraphTemplate_InputsOutputs(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	assert.Equals(t, len(template.Inputs()), 1)
	assert.Equals(t, len(template.Outputs()), 1)
	assert.Equals(t, template.Inputs()[0].Name, "Input")
	assert.Equals(t, template.Outputs()[0].Name, "Output")

	info, ok := editor.NodeType(template.NodeType())
	assert.Equals(t, ok, true)
	assert.Equals(t, info.Category, graph.SubgraphCategory)
	assert.Equals(t, info.Title, "Pass through")

	template.SetName("Renamed")
	info, _ = editor.NodeType(template.NodeType())
	assert.Equals(t, info.Title, "Renamed")
}

func TestGraphTemplate_CreateGraphDisjointIDs(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)

	first := assert.NoErrorR[*graph.Graph](t)(template.CreateGraph(nil))
	second := assert.NoErrorR[*graph.Graph](t)(template.CreateGraph(nil))
	assert.Equals(t, first.Template() == template, true)

	firstIDs := collectIDs(first)
	secondIDs := collectIDs(second)
	assert.Equals(t, len(firstIDs), len(secondIDs))
	for id := range firstIDs {
		if _, ok := secondIDs[id]; ok {
			t.Fatalf("ID %s appears in both instances", id)
		}
	}
	assert.Equals(t, topology(first), topology(second))
	assert.Equals(t, topology(first), []string{
		"graph-input.placeholder->pass.in",
		"pass.out->graph-output.placeholder",
	})

	// Template IDs correlate the interfaces of both instances.
	for _, c := range first.Connections() {
		match := second.FindInterfaceByTemplateID(c.From().TemplateID())
		assert.NotNil(t, match)
		assert.Equals(t, second.NodeOfInterface(match).Type(), first.NodeOfInterface(c.From()).Type())
	}

	// Graph interface IDs are stable across instances.
	assert.Equals(t, first.Inputs()[0].ID, second.Inputs()[0].ID)
	assert.Equals(t, first.Inputs()[0].ID, template.Inputs()[0].ID)
}

func TestGraphTemplate_CreateGraphCorrupted(t *testing.T) {
	editor := newTestEditor(t)
	template := graph.NewGraphTemplate(graph.TemplateState{
		GraphState: graph.GraphState{
			ID: "broken",
			Nodes: []graph.NodeState{{
				Type:    "source",
				ID:      "n1",
				Outputs: map[string]graph.InterfaceState{"out": {ID: "o1"}},
			}},
			Connections: []graph.ConnectionState{{ID: "c1", From: "o1", To: "nowhere"}},
		},
	}, editor)
	_, err := template.CreateGraph(nil)
	assert.Error(t, err)
	var corrupted *graph.ErrTemplateCorrupted
	assert.Equals(t, errors.As(err, &corrupted), true)
	assert.Equals(t, corrupted.ID, "nowhere")
}

func TestGraphNode_Proxies(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	info, _ := editor.NodeType(template.NodeType())
	node := editor.Graph().AddNode(info.Factory())
	graphNode := node.(*graph.GraphNode)
	assert.NotNil(t, graphNode.Subgraph())
	assert.Equals(t, graphNode.Title(), "Pass through")

	inputID := template.Inputs()[0].ID
	outputID := template.Outputs()[0].ID
	assert.Equals(t, node.Inputs().Keys(), []string{inputID})
	assert.Equals(t, node.Outputs().Keys(), []string{graph.CalculationResultsKey, outputID})

	input := node.Inputs().Get(inputID)
	assert.Equals(t, input.IsProxy(), true)
	assert.Equals(t, input.IsInput(), true)
	assert.Equals(t, input.Name(), "Input")
	target := input.Target()
	assert.NotNil(t, target)
	assert.Equals(t, graphNode.Subgraph().NodeOfInterface(target).Type(), "pass")

	output := node.Outputs().Get(outputID)
	assert.Equals(t, graphNode.Subgraph().NodeOfInterface(output.Target()).Type(), "pass")
	assert.Equals(t, node.Outputs().Get(graph.CalculationResultsKey).Hidden(), true)

	template.SetName("Renamed")
	assert.Equals(t, node.Title(), "Renamed")
}

func TestGraphNode_TemplateUpdateKeepsWiring(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	info, _ := editor.NodeType(template.NodeType())
	g := editor.Graph()
	source := g.AddNode(sourceNode.New())
	node := g.AddNode(info.Factory()).(*graph.GraphNode)
	inputID := template.Inputs()[0].ID
	conn := g.AddConnection(source.Outputs().Get("out"), node.Inputs().Get(inputID))
	assert.NotNil(t, conn)
	oldSubgraph := node.Subgraph()

	template.Update(template.Save().GraphState)
	assert.Equals(t, node.Subgraph() != oldSubgraph, true)
	assert.Equals(t, oldSubgraph.Destroyed(), true)
	assert.Equals(t, g.Connections(), []*graph.Connection{conn})
	assert.Equals(t, conn.To() == node.Inputs().Get(inputID), true)
	assert.Equals(t, node.Subgraph().NodeOfInterface(node.Inputs().Get(inputID).Target()).Type(), "pass")
}

func TestGraphNode_SaveLoad(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	info, _ := editor.NodeType(template.NodeType())
	node := editor.Graph().AddNode(info.Factory()).(*graph.GraphNode)
	subgraphID := node.Subgraph().ID()

	state := editor.Save()
	assert.Equals(t, len(state.GraphTemplates), 1)
	assert.Equals(t, state.GraphTemplates[0].Name, "Pass through")
	assert.NotNil(t, state.Graph.Nodes[0].GraphState)
	assert.Equals(t, state.Graph.Nodes[0].GraphState.ID, subgraphID)

	other := newTestEditor(t)
	warnings := other.Load(state)
	assert.Equals(t, len(warnings), 0)
	loaded := other.Graph().FindNodeByID(node.ID()).(*graph.GraphNode)
	assert.Equals(t, loaded.Subgraph().ID(), subgraphID)
	assert.Equals(t, loaded.Inputs().Get(template.Inputs()[0].ID).ID(), node.Inputs().Get(template.Inputs()[0].ID).ID())
	assert.Equals(t, other.Save(), state)
}

func TestEditor_RemoveGraphTemplate(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	info, _ := editor.NodeType(template.NodeType())
	node := editor.Graph().AddNode(info.Factory()).(*graph.GraphNode)
	subgraph := node.Subgraph()
	assert.Equals(t, len(editor.Graphs()), 2)

	editor.RemoveGraphTemplate(template)
	assert.Equals(t, len(editor.Graph().Nodes()), 0)
	assert.Equals(t, subgraph.Destroyed(), true)
	assert.Equals(t, len(editor.Graphs()), 1)
	assert.Equals(t, len(editor.GraphTemplates()), 0)
	_, ok := editor.NodeType(template.NodeType())
	assert.Equals(t, ok, false)
}

func TestEditor_AggregatesSubgraphEvents(t *testing.T) {
	editor := newTestEditor(t)
	template := newPassThroughTemplate(t, editor)
	info, _ := editor.NodeType(template.NodeType())
	node := editor.Graph().AddNode(info.Factory()).(*graph.GraphNode)

	var added []string
	editor.GraphEvents().AddNode.Subscribe("test", func(e graph.NodeEvent) {
		added = append(added, e.Graph.ID())
	})
	node.Subgraph().AddNode(sourceNode.New())
	editor.Graph().AddNode(sourceNode.New())
	assert.Equals(t, added, []string{node.Subgraph().ID(), editor.Graph().ID()})
}

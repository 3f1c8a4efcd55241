package nodegraph

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/engine"
	"go.flow.arcalot.io/nodegraph/graph"
	"gopkg.in/yaml.v3"
)

// Project is a loaded editor with its calculation engine.
type Project interface {
	Editor() *graph.Editor
	Engine() engine.Engine
	// Warnings returns the inconsistencies found while loading the editor state.
	Warnings() []string
	// Run calculates the root graph with the given global values and writes the results onto the output interfaces.
	// In forward mode the run starts from every node without connected inputs.
	Run(ctx context.Context, globals any) (graph.CalculationResult, error)
	// SetValue changes the value of an input of a root graph node. A started engine recalculates in response.
	SetValue(nodeID string, inputKey string, value any) error
	// LastResult returns the outputs of every node calculated so far, merged across runs.
	LastResult() graph.CalculationResult
	// Mermaid renders the dependency graph of the root graph.
	Mermaid() (string, error)
	// Save serializes the editor state as YAML.
	Save() ([]byte, error)
	// Close stops the engine and releases its subscriptions.
	Close() error
}

type project struct {
	editor   *graph.Editor
	engine   engine.Engine
	forward  *engine.ForwardEngine
	logger   log.Logger
	warnings []string
	result   graph.CalculationResult
}

func (p *project) Editor() *graph.Editor {
	return p.editor
}

func (p *project) Engine() engine.Engine {
	return p.engine
}

func (p *project) Warnings() []string {
	return p.warnings
}

func (p *project) Run(ctx context.Context, globals any) (graph.CalculationResult, error) {
	if p.forward == nil {
		return p.engine.RunOnce(ctx, globals)
	}
	sources := p.sourceNodes()
	if len(sources) == 0 {
		return graph.CalculationResult{}, nil
	}
	return p.forward.RunOnce(ctx, globals, sources)
}

// sourceNodes returns the root graph nodes without a connected input.
func (p *project) sourceNodes() []graph.Node {
	var sources []graph.Node
nodes:
	for _, n := range p.editor.Graph().Nodes() {
		for _, intf := range n.Inputs().All() {
			if intf.ConnectionCount() > 0 {
				continue nodes
			}
		}
		sources = append(sources, n)
	}
	return sources
}

func (p *project) onResult(data engine.RunResult) {
	for nodeID, outputs := range data.Result {
		p.result[nodeID] = outputs
	}
	engine.ApplyResult(data.Result, p.editor)
}

func (p *project) SetValue(nodeID string, inputKey string, value any) error {
	n := p.editor.Graph().FindNodeByID(nodeID)
	if n == nil {
		return &ErrUnknownNode{NodeID: nodeID}
	}
	intf := n.Inputs().Get(inputKey)
	if intf == nil {
		return fmt.Errorf("node %s of type %s has no input %s", nodeID, n.Type(), inputKey)
	}
	if !intf.SetValue(value) {
		return fmt.Errorf("setting input %s of node %s was prevented", inputKey, nodeID)
	}
	return nil
}

func (p *project) LastResult() graph.CalculationResult {
	return p.result
}

func (p *project) Mermaid() (string, error) {
	return engine.Mermaid(p.editor.Graph())
}

func (p *project) Save() ([]byte, error) {
	data, err := yaml.Marshal(p.editor.Save())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal editor state (%w)", err)
	}
	return data, nil
}

func (p *project) Close() error {
	p.engine.Stop()
	p.engine.Events().AfterRun.Unsubscribe(p)
	p.engine.Dispose()
	return nil
}

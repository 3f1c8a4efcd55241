package engine

import (
	"context"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/graph"
)

// DependencyEngine recalculates every node of the root graph in dependency order on each run.
type DependencyEngine struct {
	*BaseEngine
}

// NewDependencyEngine creates a stopped dependency engine observing the editor.
func NewDependencyEngine(editor *graph.Editor, logger log.Logger, options ...Option) (*DependencyEngine, error) {
	base, err := newBaseEngine(editor, logger, "dependency-engine", options)
	if err != nil {
		return nil, err
	}
	e := &DependencyEngine{BaseEngine: base}
	base.execute = e.executeAll
	base.onChange = func(bool, graph.Node, *graph.Graph) {
		e.autoRun()
	}
	return e, nil
}

func (e *DependencyEngine) executeAll(ctx context.Context, calculationData any, _ ...any) (graph.CalculationResult, error) {
	root := e.editor.Graph()
	inputs, err := e.GetInputValues(root)
	if err != nil {
		return nil, err
	}
	return e.RunGraph(ctx, root, inputs, calculationData)
}

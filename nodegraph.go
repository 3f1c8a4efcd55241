// Package nodegraph loads node graph editor states and calculates them. It ties the graph model, the calculation
// engines and the builtin node types together.
package nodegraph

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/config"
	"go.flow.arcalot.io/nodegraph/engine"
	"go.flow.arcalot.io/nodegraph/graph"
	"go.flow.arcalot.io/nodegraph/internal/builtin"
	"go.flow.arcalot.io/nodegraph/loadfile"
	"gopkg.in/yaml.v3"
)

// Runtime parses editor states into calculable projects.
type Runtime interface {
	// Parse decodes the editor state stored under the given key of the file cache. The state may be YAML or JSON.
	// Load inconsistencies do not fail the parse; they are reported by Project.Warnings.
	Parse(files loadfile.FileCache, key string) (Project, error)
	// ParseState creates a project from an already decoded editor state.
	ParseState(state graph.EditorState) (Project, error)
}

// New creates a runtime with the provided configuration, logging as the configuration describes.
func New(cfg *config.Config) (Runtime, error) {
	return NewWithLogger(cfg, log.New(cfg.Log))
}

// NewWithLogger creates a runtime with the provided configuration and logger.
func NewWithLogger(cfg *config.Config, logger log.Logger) (Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bug: no configuration passed to the runtime")
	}
	if logger == nil {
		return nil, fmt.Errorf("bug: no logger passed to the runtime")
	}
	return &runtime{
		config: cfg,
		logger: logger.WithLabel("source", "runtime"),
	}, nil
}

type runtime struct {
	config *config.Config
	logger log.Logger
}

func (r *runtime) Parse(files loadfile.FileCache, key string) (Project, error) {
	content := files.Content(key)
	if content == nil {
		return nil, &ErrNoGraphFile{Key: key}
	}
	var state graph.EditorState
	if err := yaml.Unmarshal(content, &state); err != nil {
		return nil, &ErrInvalidGraph{Cause: err}
	}
	return r.ParseState(state)
}

func (r *runtime) ParseState(state graph.EditorState) (Project, error) {
	editor, err := graph.NewEditor(r.logger)
	if err != nil {
		return nil, err
	}
	builtin.Register(editor)

	p := &project{
		editor: editor,
		logger: r.logger,
		result: graph.CalculationResult{},
	}
	switch r.config.Engine.Mode {
	case config.EngineModeForward:
		var options []engine.Option
		if r.config.Engine.IndependentVisits {
			options = append(options, engine.WithIndependentVisits())
		}
		p.forward, err = engine.NewForwardEngine(editor, r.logger, options...)
		p.engine = p.forward
	case config.EngineModeDependency, "":
		p.engine, err = engine.NewDependencyEngine(editor, r.logger)
	default:
		return nil, fmt.Errorf("unsupported engine mode: %s", r.config.Engine.Mode)
	}
	if err != nil {
		return nil, err
	}
	p.engine.Events().AfterRun.Subscribe(p, p.onResult)

	p.warnings = editor.Load(state)
	if r.config.Engine.AutoStart {
		if p.forward != nil {
			// Forward runs read the outputs of nodes they do not reach, so every output is calculated once first.
			if _, err := p.Run(context.Background(), nil); err != nil {
				r.logger.Warningf("Initial calculation failed (%v)", err)
				p.warnings = append(p.warnings, fmt.Sprintf("Initial calculation failed (%v)", err))
			}
		}
		p.engine.Start()
	}
	return p, nil
}

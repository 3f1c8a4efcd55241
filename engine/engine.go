// Package engine calculates node graphs. The DependencyEngine recalculates the whole graph in dependency order, the
// ForwardEngine propagates a change from one node along the connections reachable from it.
package engine

import (
	"context"
	"fmt"
	"sort"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/event"
	"go.flow.arcalot.io/nodegraph/graph"
	"go.flow.arcalot.io/nodegraph/toposort"
)

// Status is the state of an engine.
type Status string

const (
	// StatusStopped is the initial state. The engine does not react to changes.
	StatusStopped Status = "stopped"
	// StatusIdle means the engine calculates automatically when the graph changes.
	StatusIdle Status = "idle"
	// StatusPaused means changes are recorded but no calculation is triggered.
	StatusPaused Status = "paused"
	// StatusRunning is reported while a calculation is in flight.
	StatusRunning Status = "running"
)

// Engine is the common surface of the calculation engines.
type Engine interface {
	graph.EngineRef

	// Start makes the engine calculate automatically on changes.
	Start()
	// Pause suspends automatic calculations.
	Pause()
	// Resume reverts Pause.
	Resume()
	// Stop stops automatic calculations.
	Stop()
	// Status returns the current status.
	Status() Status
	// RunOnce runs a calculation. It returns nil without error if a BeforeRun listener prevented the run.
	RunOnce(ctx context.Context, calculationData any, args ...any) (graph.CalculationResult, error)
	Events() *Events
	Hooks() *Hooks
	// Dispose removes every subscription the engine holds on the editor.
	Dispose()
}

// Sorter computes the calculation order of a set of nodes.
type Sorter func(nodes []graph.Node, connections []*graph.Connection) (*toposort.Result, error)

// Run describes a requested calculation.
type Run struct {
	CalculationData any
	Args            []any
}

// RunResult is the outcome of a finished calculation.
type RunResult struct {
	CalculationData any
	Result          graph.CalculationResult
}

// NodeCalculation describes the calculation of a single node.
type NodeCalculation struct {
	Node         graph.Node
	InputValues  map[string]any
	OutputValues map[string]any
}

// Transfer is a value being propagated along a connection.
type Transfer struct {
	Value      any
	Connection *graph.Connection
}

// Events are the events an engine emits.
type Events struct {
	BeforeRun             event.PreventableEvent[Run]
	AfterRun              event.BaseEvent[RunResult]
	StatusChanged         event.BaseEvent[Status]
	BeforeNodeCalculation event.BaseEvent[NodeCalculation]
	AfterNodeCalculation  event.BaseEvent[NodeCalculation]
	// Error receives the errors of automatic calculations.
	Error event.BaseEvent[error]
}

// Hooks extend the calculation.
type Hooks struct {
	// GatherCalculationData provides the calculation data of automatic calculations.
	GatherCalculationData event.SequentialHook[any]
	// TransferData converts a value before it is written to the input at the end of a connection.
	TransferData event.SequentialHook[Transfer]
}

// Option configures an engine.
type Option func(e *BaseEngine)

// WithSorter replaces the topological sorter.
func WithSorter(sorter Sorter) Option {
	return func(e *BaseEngine) {
		e.sorter = sorter
	}
}

// BaseEngine holds the state machine, the cached calculation order, and the graph calculation shared by both
// engines.
type BaseEngine struct {
	editor           *graph.Editor
	logger           log.Logger
	status           Status
	running          bool
	recalculateOrder bool
	orders           map[string]*toposort.Result
	sorter           Sorter

	// independentVisits is only read by the forward engine.
	independentVisits bool

	execute  func(ctx context.Context, calculationData any, args ...any) (graph.CalculationResult, error)
	onChange func(recalculateOrder bool, updatedNode graph.Node, g *graph.Graph)

	events Events
	hooks  Hooks
}

func newBaseEngine(editor *graph.Editor, logger log.Logger, source string, options []Option) (*BaseEngine, error) {
	if editor == nil {
		return nil, fmt.Errorf("bug: no editor passed to the %s", source)
	}
	if logger == nil {
		return nil, fmt.Errorf("bug: no logger passed to the %s", source)
	}
	e := &BaseEngine{
		editor:           editor,
		logger:           logger.WithLabel("source", source),
		status:           StatusStopped,
		recalculateOrder: true,
		orders:           map[string]*toposort.Result{},
		sorter:           toposort.Sort,
	}
	for _, option := range options {
		option(e)
	}
	e.subscribe()
	return e, nil
}

func (e *BaseEngine) subscribe() {
	graphEvents := e.editor.GraphEvents()
	graphEvents.AddNode.Subscribe(e, func(data graph.NodeEvent) {
		e.structuralChange(data.Graph)
	})
	graphEvents.RemoveNode.Subscribe(e, func(data graph.NodeEvent) {
		e.structuralChange(data.Graph)
	})
	graphEvents.AddConnection.Subscribe(e, func(data graph.ConnectionEvent) {
		e.structuralChange(data.Graph)
	})
	graphEvents.RemoveConnection.Subscribe(e, func(data graph.ConnectionEvent) {
		e.structuralChange(data.Graph)
	})
	e.editor.NodeEvents().Update.Subscribe(e, func(data graph.NodeUpdate) {
		g := data.Node.Graph()
		if g == nil || g.Loading() || g.InTransaction() {
			return
		}
		e.internalOnChange(false, data.Node, g)
	})
	e.editor.GraphHooks().CheckConnection.Subscribe(e, e.CheckConnection)
}

// Dispose removes every subscription the engine holds on the editor.
func (e *BaseEngine) Dispose() {
	graphEvents := e.editor.GraphEvents()
	graphEvents.AddNode.Unsubscribe(e)
	graphEvents.RemoveNode.Unsubscribe(e)
	graphEvents.AddConnection.Unsubscribe(e)
	graphEvents.RemoveConnection.Unsubscribe(e)
	e.editor.NodeEvents().Update.Unsubscribe(e)
	e.editor.GraphHooks().CheckConnection.Unsubscribe(e)
}

func (e *BaseEngine) structuralChange(g *graph.Graph) {
	e.recalculateOrder = true
	if g.Loading() || g.InTransaction() {
		return
	}
	e.internalOnChange(true, nil, g)
}

func (e *BaseEngine) internalOnChange(recalculateOrder bool, updatedNode graph.Node, g *graph.Graph) {
	if e.status != StatusIdle || e.running || e.editor.Loading() || e.onChange == nil {
		return
	}
	e.onChange(recalculateOrder, updatedNode, g)
}

// autoRun runs a calculation triggered by a change and reports its errors.
func (e *BaseEngine) autoRun(args ...any) {
	calculationData := e.hooks.GatherCalculationData.Execute(nil)
	if _, err := e.RunOnce(context.Background(), calculationData, args...); err != nil {
		e.logger.Errorf("Automatic calculation failed (%v)", err)
		e.events.Error.Emit(err)
	}
}

func (e *BaseEngine) Events() *Events {
	return &e.events
}

func (e *BaseEngine) Hooks() *Hooks {
	return &e.hooks
}

// Status returns StatusRunning while a calculation is in flight and the persisted status otherwise.
func (e *BaseEngine) Status() Status {
	if e.running {
		return StatusRunning
	}
	return e.status
}

func (e *BaseEngine) setStatus(status Status) {
	if e.status == status {
		return
	}
	e.status = status
	e.events.StatusChanged.Emit(status)
}

func (e *BaseEngine) Start() {
	if e.status == StatusStopped {
		e.setStatus(StatusIdle)
	}
}

func (e *BaseEngine) Pause() {
	if e.status == StatusIdle {
		e.setStatus(StatusPaused)
	}
}

func (e *BaseEngine) Resume() {
	if e.status == StatusPaused {
		e.setStatus(StatusIdle)
	}
}

func (e *BaseEngine) Stop() {
	e.setStatus(StatusStopped)
}

// RunOnce runs a calculation. The calculation order is recomputed first if the structure changed since the last run.
func (e *BaseEngine) RunOnce(ctx context.Context, calculationData any, args ...any) (graph.CalculationResult, error) {
	if e.events.BeforeRun.Emit(Run{CalculationData: calculationData, Args: args}) {
		return nil, nil
	}
	e.running = true
	defer func() {
		e.running = false
	}()
	if e.recalculateOrder {
		if err := e.calculateOrder(); err != nil {
			return nil, err
		}
	}
	result, err := e.execute(ctx, calculationData, args...)
	if err != nil {
		return nil, err
	}
	e.events.AfterRun.Emit(RunResult{CalculationData: calculationData, Result: result})
	return result, nil
}

func (e *BaseEngine) calculateOrder() error {
	e.orders = map[string]*toposort.Result{}
	root := e.editor.Graph()
	if _, err := e.orderOf(root); err != nil {
		return err
	}
	e.recalculateOrder = false
	if mermaid, err := Mermaid(root); err == nil {
		e.logger.Debugf("Calculation order recomputed, dependency tree Mermaid:\n%s", mermaid)
	}
	return nil
}

func (e *BaseEngine) orderOf(g *graph.Graph) (*toposort.Result, error) {
	if order, ok := e.orders[g.ID()]; ok {
		return order, nil
	}
	order, err := e.sorter(g.Nodes(), g.Connections())
	if err != nil {
		return nil, fmt.Errorf("failed to sort graph %s (%w)", g.ID(), err)
	}
	e.orders[g.ID()] = order
	return order, nil
}

// GetInputValues returns the current value of every input without incoming connection and of every output of a node
// without calculation, keyed by interface ID.
func (e *BaseEngine) GetInputValues(g *graph.Graph) (map[string]any, error) {
	values := map[string]any{}
	for _, n := range g.Nodes() {
		for _, intf := range n.Inputs().All() {
			if intf.ConnectionCount() == 0 {
				values[intf.ID()] = intf.Value()
			}
		}
		if n.Calculation() == nil {
			for _, intf := range n.Outputs().All() {
				values[intf.ID()] = intf.Value()
			}
		}
	}
	return values, nil
}

// RunGraph calculates every node of the graph in dependency order. The inputs map interface IDs to values; values
// propagated along connections are written into it.
func (e *BaseEngine) RunGraph(
	ctx context.Context,
	g *graph.Graph,
	inputs map[string]any,
	globalValues any,
) (graph.CalculationResult, error) {
	order, err := e.orderOf(g)
	if err != nil {
		return nil, err
	}
	result := graph.CalculationResult{}
	for _, n := range order.CalculationOrder {
		inputValues := map[string]any{}
		for _, key := range n.Inputs().Keys() {
			value, err := interfaceValue(inputs, n.Inputs().Get(key))
			if err != nil {
				return nil, err
			}
			inputValues[key] = value
		}
		outputValues, err := e.calculateNode(ctx, n, inputValues, globalValues, func(intf *graph.NodeInterface) (any, error) {
			return interfaceValue(inputs, intf)
		})
		if err != nil {
			return nil, err
		}
		result[n.ID()] = outputValues

		for _, c := range order.ConnectionsFromNode[n.ID()] {
			value, err := e.transfer(n, c, outputValues)
			if err != nil {
				return nil, err
			}
			if c.To().AllowMultipleConnections() {
				existing, _ := inputs[c.To().ID()].([]any)
				inputs[c.To().ID()] = append(existing, value)
			} else {
				inputs[c.To().ID()] = value
			}
		}
	}
	return result, nil
}

// calculateNode calls the calculation function of a node, or reads its output values if it has none, and validates
// the result.
func (e *BaseEngine) calculateNode(
	ctx context.Context,
	n graph.Node,
	inputValues map[string]any,
	globalValues any,
	outputValue func(intf *graph.NodeInterface) (any, error),
) (map[string]any, error) {
	e.events.BeforeNodeCalculation.Emit(NodeCalculation{Node: n, InputValues: inputValues})
	var outputValues map[string]any
	if calculate := n.Calculation(); calculate != nil {
		var err error
		outputValues, err = calculate(ctx, inputValues, graph.CalculationContext{
			GlobalValues: globalValues,
			Engine:       e,
		})
		if err != nil {
			return nil, &ErrNodeCalculationFailed{NodeID: n.ID(), NodeType: n.Type(), Cause: err}
		}
	} else {
		outputValues = map[string]any{}
		for _, key := range n.Outputs().Keys() {
			value, err := outputValue(n.Outputs().Get(key))
			if err != nil {
				return nil, err
			}
			outputValues[key] = value
		}
	}
	if err := validateNodeCalculationOutput(n, outputValues); err != nil {
		return nil, err
	}
	e.events.AfterNodeCalculation.Emit(NodeCalculation{Node: n, InputValues: inputValues, OutputValues: outputValues})
	return outputValues, nil
}

func (e *BaseEngine) transfer(n graph.Node, c *graph.Connection, outputValues map[string]any) (any, error) {
	key, ok := n.Outputs().KeyOf(c.From().ID())
	if !ok {
		return nil, fmt.Errorf("bug: could not find the key of interface %s on node %s", c.From().ID(), n.ID())
	}
	return e.hooks.TransferData.Execute(Transfer{Value: outputValues[key], Connection: c}).Value, nil
}

// CheckConnection is the connection validity hook the engine installs on every graph. It rejects connections that
// would create a cycle and marks the existing connection of a single-connection input as in danger. A proposal in a
// template instance that is not displayed is also checked against the displayed instance of the same template, its
// endpoints resolved through their template IDs.
func (e *BaseEngine) CheckConnection(proposal graph.ConnectionProposal) graph.CheckResult {
	g := proposal.Graph
	inDanger, ok := e.simulateConnection(g, proposal.From, proposal.To)
	if !ok {
		return graph.CheckResult{Allowed: false}
	}
	if displayed := e.editor.DisplayedGraph(); isOtherInstance(displayed, g) {
		from := displayed.FindInterfaceByTemplateID(proposal.From.TemplateID())
		to := displayed.FindInterfaceByTemplateID(proposal.To.TemplateID())
		if from != nil && to != nil {
			if _, ok := e.simulateConnection(displayed, from, to); !ok {
				return graph.CheckResult{Allowed: false}
			}
		}
	}
	return graph.CheckResult{Allowed: true, ConnectionsInDanger: inDanger}
}

// isOtherInstance returns true if displayed is a different instance of the template g was created from.
func isOtherInstance(displayed *graph.Graph, g *graph.Graph) bool {
	return displayed != nil && displayed != g && g.Template() != nil && displayed.Template() == g.Template()
}

// simulateConnection adds the edge from → to to a copy of the connections of g, leaving out the connections it would
// supersede, and reports whether the result is acyclic together with the superseded connections.
func (e *BaseEngine) simulateConnection(
	g *graph.Graph,
	from *graph.NodeInterface,
	to *graph.NodeInterface,
) ([]*graph.Connection, bool) {
	var inDanger []*graph.Connection
	connections := make([]*graph.Connection, 0, len(g.Connections())+1)
	for _, c := range g.Connections() {
		if c.To() == to && !to.AllowMultipleConnections() {
			inDanger = append(inDanger, c)
			continue
		}
		connections = append(connections, c)
	}
	connections = append(connections, graph.NewDummyConnection(from, to))
	cycle, err := toposort.ContainsCycle(g.Nodes(), connections)
	if err != nil {
		e.logger.Warningf("Failed to check connection %s → %s for cycles (%v)", from.ID(), to.ID(), err)
		return nil, false
	}
	if cycle {
		return nil, false
	}
	return inDanger, true
}

func interfaceValue(values map[string]any, intf *graph.NodeInterface) (any, error) {
	value, ok := values[intf.ID()]
	if !ok {
		return nil, &graph.ErrUnknownInterface{
			InterfaceID: intf.ID(),
			Reason:      fmt.Sprintf("no value for interface %q of node %s", intf.Name(), intf.NodeID()),
		}
	}
	return value, nil
}

func validateNodeCalculationOutput(n graph.Node, outputValues map[string]any) error {
	keys := n.Outputs().Keys()
	if outputValues == nil {
		if len(keys) == 0 {
			return nil
		}
		return &ErrInvalidNodeOutput{NodeID: n.ID(), NodeType: n.Type(), MissingKeys: nil}
	}
	var missing []string
	for _, key := range keys {
		if _, ok := outputValues[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ErrInvalidNodeOutput{NodeID: n.ID(), NodeType: n.Type(), MissingKeys: missing}
	}
	return nil
}

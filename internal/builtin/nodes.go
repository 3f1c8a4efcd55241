// Package builtin provides the node types every runtime registers: numbers, arithmetic, text, display, sums and
// expression-based selection.
package builtin

import (
	"context"
	"fmt"

	"go.flow.arcalot.io/expressions"
	"go.flow.arcalot.io/nodegraph/graph"
)

// Category is the registry category of the builtin node types.
const Category = "Builtin"

// Operation is an arithmetic operation of the math node.
type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationDivide   Operation = "divide"
)

func port(name string, value any) func() *graph.NodeInterface {
	return func() *graph.NodeInterface {
		return graph.NewInterface(name, value)
	}
}

func option(name string, typeName string, value any) func() *graph.NodeInterface {
	return func() *graph.NodeInterface {
		return graph.NewInterface(name, value).WithType(typeName).WithPort(false)
	}
}

// Number outputs the number configured on the node.
var Number = graph.NodeDefinition{
	Type:  "number",
	Title: "Number",
	Inputs: []graph.InterfaceDefinition{
		{Key: "value", New: option("Value", "number", 0.0)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "value", New: port("Value", 0.0)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		value, err := ToFloat(inputs["value"])
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": value}, nil
	},
}

// Math applies an arithmetic operation to two numbers.
var Math = graph.NodeDefinition{
	Type:  "math",
	Title: "Math",
	Inputs: []graph.InterfaceDefinition{
		{Key: "operation", New: option("Operation", "string", string(OperationAdd))},
		{Key: "a", New: port("A", 0.0)},
		{Key: "b", New: port("B", 0.0)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "result", New: port("Result", 0.0)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		a, err := ToFloat(inputs["a"])
		if err != nil {
			return nil, fmt.Errorf("invalid operand a (%w)", err)
		}
		b, err := ToFloat(inputs["b"])
		if err != nil {
			return nil, fmt.Errorf("invalid operand b (%w)", err)
		}
		operation, _ := inputs["operation"].(string)
		var result float64
		switch Operation(operation) {
		case OperationAdd:
			result = a + b
		case OperationSubtract:
			result = a - b
		case OperationMultiply:
			result = a * b
		case OperationDivide:
			if b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			result = a / b
		default:
			return nil, fmt.Errorf("unsupported operation: %q", operation)
		}
		return map[string]any{"result": result}, nil
	},
}

// Text outputs the text configured on the node.
var Text = graph.NodeDefinition{
	Type:  "text",
	Title: "Text",
	Inputs: []graph.InterfaceDefinition{
		{Key: "text", New: option("Text", "string", "")},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "text", New: port("Text", "")},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		return map[string]any{"text": fmt.Sprint(inputs["text"])}, nil
	},
}

// Display renders its input as text on a hidden output, for front-ends to show on the node.
var Display = graph.NodeDefinition{
	Type:  "display",
	Title: "Display",
	Inputs: []graph.InterfaceDefinition{
		{Key: "value", New: port("Value", nil)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "display", New: func() *graph.NodeInterface {
			return graph.NewInterface("Display", "").WithType("string").WithHidden(true).WithPort(false)
		}},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		value := inputs["value"]
		if value == nil {
			return map[string]any{"display": ""}, nil
		}
		return map[string]any{"display": fmt.Sprint(value)}, nil
	},
}

// Sum adds every number connected to its input.
var Sum = graph.NodeDefinition{
	Type:  "sum",
	Title: "Sum",
	Inputs: []graph.InterfaceDefinition{
		{Key: "values", New: func() *graph.NodeInterface {
			return graph.NewInterface("Values", []any{}).WithMultipleConnections(true)
		}},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "sum", New: port("Sum", 0.0)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, _ graph.CalculationContext) (map[string]any, error) {
		values, ok := inputs["values"].([]any)
		if !ok && inputs["values"] != nil {
			return nil, fmt.Errorf("expected a list of values, got %T", inputs["values"])
		}
		sum := 0.0
		for i, v := range values {
			f, err := ToFloat(v)
			if err != nil {
				return nil, fmt.Errorf("invalid value %d (%w)", i, err)
			}
			sum += f
		}
		return map[string]any{"sum": sum}, nil
	},
}

// Select evaluates an expression against its input data. The input is available as the root ($) of the expression;
// the calculation's global values are available under $.globals when the input is a map.
var Select = graph.NodeDefinition{
	Type:  "select",
	Title: "Select",
	Inputs: []graph.InterfaceDefinition{
		{Key: "expression", New: option("Expression", "string", "$")},
		{Key: "data", New: port("Data", nil)},
	},
	Outputs: []graph.InterfaceDefinition{
		{Key: "result", New: port("Result", nil)},
	},
	Calculate: func(_ context.Context, inputs map[string]any, calculationContext graph.CalculationContext) (
		map[string]any,
		error,
	) {
		source, _ := inputs["expression"].(string)
		expr, err := expressions.New(source)
		if err != nil {
			return nil, fmt.Errorf("invalid expression %q (%w)", source, err)
		}
		data := inputs["data"]
		if m, ok := data.(map[string]any); ok && calculationContext.GlobalValues != nil {
			withGlobals := make(map[string]any, len(m)+1)
			for k, v := range m {
				withGlobals[k] = v
			}
			withGlobals["globals"] = calculationContext.GlobalValues
			data = withGlobals
		}
		result, err := expr.Evaluate(data, Functions(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate expression %q (%w)", source, err)
		}
		return map[string]any{"result": result}, nil
	},
}

// Definitions returns every builtin node definition in registration order.
func Definitions() []graph.NodeDefinition {
	return []graph.NodeDefinition{Number, Math, Text, Display, Sum, Select}
}

// Register registers every builtin node type with the editor. Types that are already registered are left alone.
func Register(editor *graph.Editor) {
	for _, definition := range Definitions() {
		if _, ok := editor.NodeType(definition.Type); ok {
			continue
		}
		editor.RegisterNodeType(definition.Factory(), graph.NodeTypeOptions{Category: Category})
	}
}

// ToFloat converts the numeric types produced by YAML and JSON decoding, and by the builtin nodes, to float64.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.flow.arcalot.io/pluginsdk/schema"
)

// Functions returns the functions available to the expressions of select nodes.
func Functions() map[string]schema.CallableFunction {
	result := map[string]schema.CallableFunction{}
	for _, f := range []schema.CallableFunction{
		newFunction(
			"toNumber",
			[]schema.Type{schema.NewStringSchema(nil, nil, nil)},
			schema.NewFloatSchema(nil, nil, nil),
			true,
			"Parses a string as a floating point number. For example, `\"1.5\"` becomes `1.5`.",
			func(s string) (float64, error) {
				value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return 0, fmt.Errorf("cannot parse %q as a number (%w)", s, err)
				}
				return value, nil
			},
		),
		newFunction(
			"toText",
			[]schema.Type{schema.NewFloatSchema(nil, nil, nil)},
			schema.NewStringSchema(nil, nil, nil),
			false,
			"Formats a number as the shortest string that parses back to the same number.",
			func(f float64) string {
				return strconv.FormatFloat(f, 'g', -1, 64)
			},
		),
		newFunction(
			"round",
			[]schema.Type{schema.NewFloatSchema(nil, nil, nil)},
			schema.NewFloatSchema(nil, nil, nil),
			false,
			"Rounds a number to the nearest integer, rounding half away from zero.",
			math.Round,
		),
		newFunction(
			"abs",
			[]schema.Type{schema.NewFloatSchema(nil, nil, nil)},
			schema.NewFloatSchema(nil, nil, nil),
			false,
			"Returns the absolute value of a number.",
			math.Abs,
		),
		newFunction(
			"clamp",
			[]schema.Type{
				schema.NewFloatSchema(nil, nil, nil),
				schema.NewFloatSchema(nil, nil, nil),
				schema.NewFloatSchema(nil, nil, nil),
			},
			schema.NewFloatSchema(nil, nil, nil),
			true,
			"Limits a number to the range given by the second and third argument.",
			func(value float64, lower float64, upper float64) (float64, error) {
				if lower > upper {
					return 0, fmt.Errorf("invalid range: lower bound %v is above upper bound %v", lower, upper)
				}
				return math.Min(math.Max(value, lower), upper), nil
			},
		),
		newFunction(
			"lower",
			[]schema.Type{schema.NewStringSchema(nil, nil, nil)},
			schema.NewStringSchema(nil, nil, nil),
			false,
			"Converts a string to lower case.",
			strings.ToLower,
		),
		newFunction(
			"upper",
			[]schema.Type{schema.NewStringSchema(nil, nil, nil)},
			schema.NewStringSchema(nil, nil, nil),
			false,
			"Converts a string to upper case.",
			strings.ToUpper,
		),
		newFunction(
			"split",
			[]schema.Type{
				schema.NewStringSchema(nil, nil, nil),
				schema.NewStringSchema(nil, nil, nil),
			},
			schema.NewListSchema(schema.NewStringSchema(nil, nil, nil), nil, nil),
			false,
			"Splits the first argument at every occurrence of the second.",
			strings.Split,
		),
	} {
		result[f.ID()] = f
	}
	return result
}

func newFunction(
	id string,
	parameters []schema.Type,
	output schema.Type,
	hasError bool,
	description string,
	handler any,
) schema.CallableFunction {
	f, err := schema.NewCallableFunction(
		id,
		parameters,
		output,
		hasError,
		schema.NewDisplayValue(schema.PointerTo(id), schema.PointerTo(description), nil),
		handler,
	)
	if err != nil {
		panic(fmt.Errorf("bug: invalid function %s (%w)", id, err))
	}
	return f
}

package config

import (
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/internal/util"
	"go.flow.arcalot.io/pluginsdk/schema"
)

// optionalProperty describes a property that takes its default when left out of the configuration file.
func optionalProperty(valueType schema.Type, name string, description string, defaultValue *string) *schema.PropertySchema {
	return schema.NewPropertySchema(
		valueType,
		schema.NewDisplayValue(schema.PointerTo(name), schema.PointerTo(description), nil),
		false,
		nil,
		nil,
		nil,
		defaultValue,
		nil,
	)
}

func enumValue(name string, description string) *schema.DisplayValue {
	value := &schema.DisplayValue{NameValue: schema.PointerTo(name)}
	if description != "" {
		value.DescriptionValue = schema.PointerTo(description)
	}
	return value
}

func getConfigSchema() *schema.TypedScopeSchema[*Config] {
	return schema.NewTypedScopeSchema[*Config](
		schema.NewStructMappedObjectSchema[*Config](
			"Config",
			map[string]*schema.PropertySchema{
				"log": optionalProperty(
					schema.NewRefSchema("LogConfig", nil),
					"Logging",
					"Logging configuration",
					schema.PointerTo("{}"),
				),
				"engine": optionalProperty(
					schema.NewRefSchema("EngineConfig", nil),
					"Engine",
					"Calculation engine configuration",
					schema.PointerTo("{}"),
				),
			},
		),
		engineConfigSchema(),
		logConfigSchema(),
	)
}

func engineConfigSchema() *schema.ObjectSchema {
	return schema.NewStructMappedObjectSchema[EngineConfig](
		"EngineConfig",
		map[string]*schema.PropertySchema{
			"mode": optionalProperty(
				schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
					string(EngineModeDependency): enumValue(
						"Dependency",
						"Recalculate every node in dependency order on each run.",
					),
					string(EngineModeForward): enumValue(
						"Forward",
						"Recalculate only the nodes reachable from the changed node.",
					),
				}),
				"Engine mode",
				"Calculation strategy.",
				util.JSONDefault(EngineModeDependency),
			),
			"auto_start": optionalProperty(
				schema.NewBoolSchema(),
				"Start automatically",
				"Start the engine after loading a graph, so it recalculates whenever the graph changes.",
				util.JSONDefault(false),
			),
			"independent_visits": optionalProperty(
				schema.NewBoolSchema(),
				"Independent visits",
				"Forward mode only: calculate a node once per propagated value instead of merging the values "+
					"reaching it during a run.",
				util.JSONDefault(false),
			),
		},
	)
}

func logConfigSchema() *schema.ObjectSchema {
	return schema.NewStructMappedObjectSchema[log.Config](
		"LogConfig",
		map[string]*schema.PropertySchema{
			"level": optionalProperty(
				schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
					string(log.LevelDebug):   enumValue("Debug", "Node calculations and order recomputations."),
					string(log.LevelInfo):    enumValue("Informational", ""),
					string(log.LevelWarning): enumValue("Warnings", "Load inconsistencies and recoverable errors."),
					string(log.LevelError):   enumValue("Errors", ""),
				}),
				"Log level",
				"Minimum level of log messages to write.",
				util.JSONDefault(log.LevelInfo),
			),
			"destination": optionalProperty(
				schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
					string(log.DestinationStdout): enumValue("Standard output", ""),
				}),
				"Log destination",
				"Where the logs are written to. The command line tool redirects them to the standard error.",
				util.JSONDefault(log.DestinationStdout),
			),
		},
	)
}

package config_test

import (
	"testing"

	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/config"
	"gopkg.in/yaml.v3"
)

var configLoadData = map[string]struct {
	input          string
	error          bool
	expectedOutput *config.Config
}{
	"empty": {
		input: "{}",
		expectedOutput: &config.Config{
			Log: log.Config{
				Level:       log.LevelInfo,
				Destination: log.DestinationStdout,
			},
			Engine: config.EngineConfig{
				Mode: config.EngineModeDependency,
			},
		},
	},
	"log-level": {
		input: `
log:
  level: debug
`,
		expectedOutput: &config.Config{
			Log: log.Config{
				Level:       log.LevelDebug,
				Destination: log.DestinationStdout,
			},
			Engine: config.EngineConfig{
				Mode: config.EngineModeDependency,
			},
		},
	},
	"forward-engine": {
		input: `
engine:
  mode: forward
  auto_start: true
  independent_visits: true
`,
		expectedOutput: &config.Config{
			Log: log.Config{
				Level:       log.LevelInfo,
				Destination: log.DestinationStdout,
			},
			Engine: config.EngineConfig{
				Mode:              config.EngineModeForward,
				AutoStart:         true,
				IndependentVisits: true,
			},
		},
	},
	"invalid-mode": {
		input: `
engine:
  mode: backward
`,
		error: true,
	},
	"invalid-log-level": {
		input: `
log:
  level: verbose
`,
		error: true,
	},
}

func TestConfigLoad(t *testing.T) {
	for name, tc := range configLoadData {
		testCase := tc
		t.Run(name, func(t *testing.T) {
			var data map[string]any
			assert.NoError(t, yaml.Unmarshal([]byte(testCase.input), &data))
			c, err := config.Load(data)
			if testCase.error {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equals(t, *c, *testCase.expectedOutput)
		})
	}
}

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.Equals(t, c.Log.Level, log.LevelInfo)
	assert.Equals(t, c.Engine.Mode, config.EngineModeDependency)
	assert.Equals(t, c.Engine.AutoStart, false)
}

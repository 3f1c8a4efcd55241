// Package main provides the nodegraph command line tool, which calculates a node graph editor state file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph"
	"go.flow.arcalot.io/nodegraph/config"
	"go.flow.arcalot.io/nodegraph/graph"
	"go.flow.arcalot.io/nodegraph/internal/tableprinter"
	"go.flow.arcalot.io/nodegraph/internal/watch"
	"go.flow.arcalot.io/nodegraph/loadfile"
	"gopkg.in/yaml.v3"
)

// These variables are filled using ldflags during the build process.
var (
	version = "development"
	commit  = "unknown"
	date    = "unknown"
)

// ExitCodeOK signals that the program terminated normally.
const ExitCodeOK = 0

// ExitCodeInvalidData signals that the program encountered an invalid configuration, graph or globals file.
const ExitCodeInvalidData = 1

// ExitCodeLoadWarnings indicates that the graph was calculated, but loading it reported inconsistencies.
const ExitCodeLoadWarnings = 2

// ExitCodeCalculationFailed indicates that the calculation failed.
const ExitCodeCalculationFailed = 3

// Output formats.
const (
	outputYAML  = "yaml"
	outputTable = "table"
)

type options struct {
	configFile   string
	graphFile    string
	globalsFile  string
	dir          string
	output       string
	printMermaid bool
	watchFiles   bool
}

func main() {
	tempLogger := log.New(log.Config{
		Level:       log.LevelInfo,
		Destination: log.DestinationStdout,
		Stdout:      os.Stderr,
	})

	opts := options{
		dir:       ".",
		graphFile: "graph.yaml",
		output:    outputYAML,
	}
	printVersion := false

	flag.BoolVar(&printVersion, "version", printVersion, "Print the nodegraph version and exit.")
	flag.StringVar(&opts.configFile, "config", opts.configFile, "The configuration file to load, if any.")
	flag.StringVar(
		&opts.graphFile,
		"graph",
		opts.graphFile,
		"The editor state file to calculate, YAML or JSON. Defaults to graph.yaml.",
	)
	flag.StringVar(
		&opts.globalsFile,
		"globals",
		opts.globalsFile,
		"A YAML or JSON file with the global values passed to every node calculation, if any.",
	)
	flag.StringVar(
		&opts.dir,
		"context",
		opts.dir,
		"The directory relative file paths are resolved against. Defaults to the current directory.",
	)
	flag.StringVar(&opts.output, "output", opts.output, "The output format: yaml or table.")
	flag.BoolVar(
		&opts.printMermaid,
		"mermaid",
		opts.printMermaid,
		"Print the dependency graph as a Mermaid flowchart instead of calculating.",
	)
	flag.BoolVar(
		&opts.watchFiles,
		"watch",
		opts.watchFiles,
		"Recalculate whenever the graph or globals file changes, until interrupted.",
	)
	flag.Usage = func() {
		_, _ = os.Stderr.Write([]byte(`Usage: nodegraph [OPTIONS]

Calculates a node graph editor state and prints the outputs of every node.

Options:

  -version            Print the nodegraph version and exit.

  -config FILENAME    The configuration file to load, if any.

  -graph FILENAME     The editor state file to calculate, YAML or JSON.
                      Defaults to graph.yaml.

  -globals FILENAME   A YAML or JSON file with the global values passed to
                      every node calculation, if any.

  -context DIRECTORY  The directory relative file paths are resolved
                      against. Defaults to the current directory.

  -output FORMAT      The output format: yaml (default) or table.

  -mermaid            Print the dependency graph as a Mermaid flowchart
                      instead of calculating.

  -watch              Recalculate whenever the graph or globals file
                      changes, until interrupted.
`))
	}
	flag.Parse()

	if printVersion {
		fmt.Printf(
			"nodegraph\n"+
				"=========\n"+
				"Version: %s\n"+
				"Commit: %s\n"+
				"Date: %s\n",
			version, commit, date,
		)
		return
	}
	if opts.output != outputYAML && opts.output != outputTable {
		tempLogger.Errorf("Invalid output format: %s", opts.output)
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	files, err := loadfile.NewFileCache(opts.dir, map[string]string{
		loadfile.KeyConfig:  opts.configFile,
		loadfile.KeyGraph:   opts.graphFile,
		loadfile.KeyGlobals: opts.globalsFile,
	})
	if err != nil {
		flag.Usage()
		tempLogger.Errorf("Context path resolution failed %s (%v)", opts.dir, err)
		os.Exit(ExitCodeInvalidData)
	}
	if err := files.Load(); err != nil {
		tempLogger.Errorf("Failed to load required files (%v)", err)
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	var configData any = map[string]any{}
	if opts.configFile != "" {
		if err := yaml.Unmarshal(files.Content(loadfile.KeyConfig), &configData); err != nil {
			tempLogger.Errorf("Failed to parse configuration file %s (%v)", opts.configFile, err)
			flag.Usage()
			os.Exit(ExitCodeInvalidData)
		}
	}
	cfg, err := config.Load(configData)
	if err != nil {
		tempLogger.Errorf("Failed to load configuration file %s (%v)", opts.configFile, err)
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	// now we are ready to instantiate our main logger
	cfg.Log.Stdout = os.Stderr
	logger := log.New(cfg.Log).WithLabel("source", "main")

	runtime, err := nodegraph.NewWithLogger(cfg, logger)
	if err != nil {
		logger.Errorf("Failed to initialize the runtime (%v)", err)
		os.Exit(ExitCodeInvalidData)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctrlC := make(chan os.Signal, 2)
	signal.Notify(ctrlC, os.Interrupt)
	go handleOSInterrupt(ctrlC, cancel, logger)
	defer func() {
		signal.Stop(ctrlC)
		close(ctrlC)
		cancel()
	}()

	exitCode := calculate(ctx, runtime, files, opts, logger, os.Stdout)
	if opts.watchFiles && !opts.printMermaid {
		exitCode = watchAndCalculate(ctx, runtime, files, opts, logger, os.Stdout)
	}
	cancel()
	os.Exit(exitCode)
}

// calculate parses the graph in the file cache, runs it and prints the result.
func calculate(
	ctx context.Context,
	runtime nodegraph.Runtime,
	files loadfile.FileCache,
	opts options,
	logger log.Logger,
	output io.Writer,
) int {
	project, err := runtime.Parse(files, loadfile.KeyGraph)
	if err != nil {
		logger.Errorf("Invalid graph (%v)", err)
		return ExitCodeInvalidData
	}
	defer func() {
		_ = project.Close()
	}()
	for _, warning := range project.Warnings() {
		logger.Warningf("%s", warning)
	}

	if opts.printMermaid {
		mermaid, err := project.Mermaid()
		if err != nil {
			logger.Errorf("Failed to render the dependency graph (%v)", err)
			return ExitCodeInvalidData
		}
		_, _ = fmt.Fprintln(output, mermaid)
		return ExitCodeOK
	}

	var globals any
	if content := files.Content(loadfile.KeyGlobals); content != nil {
		if err := yaml.Unmarshal(content, &globals); err != nil {
			logger.Errorf("Invalid globals file %s (%v)", opts.globalsFile, err)
			return ExitCodeInvalidData
		}
	}

	result, err := project.Run(ctx, globals)
	if err != nil {
		logger.Errorf("Calculation failed (%v)", err)
		return ExitCodeCalculationFailed
	}
	if err := printResult(output, opts.output, project.Editor().Graph(), result); err != nil {
		logger.Errorf("Failed to write the result (%v)", err)
		return ExitCodeInvalidData
	}
	if len(project.Warnings()) > 0 {
		return ExitCodeLoadWarnings
	}
	return ExitCodeOK
}

// watchAndCalculate recalculates on every change of the watched files until the context is cancelled. The exit code
// is the one of the last calculation.
func watchAndCalculate(
	ctx context.Context,
	runtime nodegraph.Runtime,
	files loadfile.FileCache,
	opts options,
	logger log.Logger,
	output io.Writer,
) int {
	watcher, err := watch.New(files, logger, watch.DefaultDebounce)
	if err != nil {
		logger.Errorf("Failed to watch files (%v)", err)
		return ExitCodeInvalidData
	}
	defer func() {
		_ = watcher.Close()
	}()
	logger.Infof("Watching for changes, press CTRL-C to exit.")
	exitCode := ExitCodeOK
	err = watcher.Run(ctx, func(keys []string) {
		if len(keys) == 1 && keys[0] == loadfile.KeyConfig {
			logger.Warningf("Configuration changes are applied on restart.")
			return
		}
		logger.Infof("Files %v changed, recalculating...", keys)
		exitCode = calculate(ctx, runtime, files, opts, logger, output)
	})
	if err != nil {
		logger.Errorf("File watcher failed (%v)", err)
		return ExitCodeInvalidData
	}
	return exitCode
}

func printResult(output io.Writer, format string, g *graph.Graph, result graph.CalculationResult) error {
	if format == outputTable {
		tableprinter.PrintResult(output, g, result)
		return nil
	}
	data := map[string]map[string]any{}
	for nodeID, outputs := range result {
		values := map[string]any{}
		for key, value := range outputs {
			if key != graph.CalculationResultsKey {
				values[key] = value
			}
		}
		data[nodeID] = values
	}
	encoded, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = output.Write(encoded)
	return err
}

func handleOSInterrupt(ctrlC chan os.Signal, cancel context.CancelFunc, logger log.Logger) {
	_, ok := <-ctrlC
	if !ok {
		return
	}
	logger.Infof("Requesting graceful shutdown.")
	cancel()

	_, ok = <-ctrlC
	if !ok {
		return
	}
	logger.Warningf("Force exiting.")
	os.Exit(1)
}

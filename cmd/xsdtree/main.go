package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agentflare-ai/go-xsdtree"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(runWithArgs(os.Args[1:], os.Stdout, os.Stderr))
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// app carries settings resolved from the config file and flags.
type app struct {
	stdout, stderr io.Writer

	configPath string
	schemaPath string
	logLevel   string
	logFormat  string

	config *xsdtree.Config
	logger *logrus.Logger
	cache  *xsdtree.SchemaCache
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "xsdtree",
		Short:         "`xsdtree` lists XSD element trees and synthesizes XML templates",
		Long:          "`xsdtree` flattens the element tree below a global element of an XSD schema and writes XML tag skeletons for it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVarP(&a.schemaPath, "schema", "s", "", "XSD schema file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log formatter (text, json)")

	root.AddCommand(
		newRootsCmd(a),
		newElementsCmd(a),
		newOutlineCmd(a),
		newTemplateCmd(a),
		newCheckCmd(a),
	)
	return root
}

// setup loads the config file, overlays flags and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	config := xsdtree.DefaultConfig()
	if a.configPath != "" {
		var err error
		if config, err = xsdtree.LoadConfig(a.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("schema") {
		config.Schema = a.schemaPath
	}
	if flags.Changed("log-level") {
		config.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		config.Log.Formatter = a.logFormat
	}

	a.logger = logrus.New()
	a.logger.SetOutput(a.stderr)
	if err := config.Log.Apply(a.logger); err != nil {
		return err
	}

	a.config = config
	a.cache = xsdtree.NewSchemaCache("")
	a.cache.Logger = logrus.NewEntry(a.logger)
	return nil
}

func (a *app) reader() (*xsdtree.Reader, error) {
	if a.config.Schema == "" {
		return nil, &usageError{msg: "no schema given (use --schema or the config file)"}
	}
	return xsdtree.OpenReader(a.cache, a.config.Schema,
		xsdtree.WithLogger(a.logger.WithField("schema", a.config.Schema)),
		xsdtree.WithTemplateOptions(a.config.TemplateOptions()...),
	)
}

// subtreePath picks the path argument, falling back to the configured one.
func (a *app) subtreePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.config.Path != "" {
		return a.config.Path, nil
	}
	return "", &usageError{msg: "no element path given"}
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/config"
	logpkg "github.com/kailas-cloud/docset/internal/logger"
	"github.com/kailas-cloud/docset/internal/version"
)

// ProgramName is the command name shown in help output.
const ProgramName = "docset"

func main() {
	runMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func runMain(args []string, stdout, stderr io.Writer, exit func(int)) {
	if err := Execute(args[1:], stdout); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing.
func Execute(args []string, out io.Writer) error {
	root := newRootCmd(out)
	root.SetArgs(args)
	return root.Execute()
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	env        string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           ProgramName,
		Short:         "Lazy, cacheable document search",
		Long:          "docset queries Redis search, bleve and Meilisearch indexes and resolves hits into stored records.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetVersionTemplate("{{.Version}}\n")
	registerGlobalFlags(root.PersistentFlags(), g)

	root.AddCommand(
		newServeCmd(g),
		newSearchCmd(g),
		newCountCmd(g),
		newVersionCmd(),
	)
	return root
}

func registerGlobalFlags(fs *pflag.FlagSet, g *globalFlags) {
	fs.StringVarP(&g.configPath, "config", "c", "", "config file (default: config/<env>.yaml)")
	fs.StringVar(&g.env, "env", config.GetEnv(), "environment: local, dev, prod, test")
	fs.StringVar(&g.logLevel, "log-level", "", "override logging.level from the config")
}

// load reads the configuration and builds the logger it asks for.
func (g *globalFlags) load() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(g.env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := logpkg.NewLogger(g.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ProgramName, version.String())
			return err
		},
	}
}

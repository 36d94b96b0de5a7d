// Command triage serves and queries the scheduling knowledge base.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/config"
	logpkg "github.com/kailas-cloud/triage/internal/logger"
	"github.com/kailas-cloud/triage/internal/version"
)

type globalFlags struct {
	env        string
	configPath string
	logLevel   string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "triage",
		Short:         "Semantic search over scheduling tribal knowledge",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(g.envFile)
		},
	}

	root.PersistentFlags().StringVar(&g.env, "env", "", "environment name, selects config/<env>.yaml (default $ENV or local)")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "explicit config file, overrides --env")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newServeCmd(g),
		newSeedCmd(g),
		newSearchCmd(g),
		newSuggestCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadDotEnv loads path when it exists. Variables already set win.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (g *globalFlags) resolveEnv() string {
	if g.env != "" {
		return g.env
	}
	return config.GetEnv()
}

// setup loads the config and builds the logger shared by every subcommand.
func (g *globalFlags) setup() (config.Config, *zap.Logger, error) {
	env := g.resolveEnv()

	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := logpkg.NewLogger(loggerEnv(env), level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// loggerEnv maps custom environments onto a known logger profile.
func loggerEnv(env string) string {
	switch env {
	case "prod", "local", "dev", "docker", "test":
		return env
	}
	return "dev"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triage %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}

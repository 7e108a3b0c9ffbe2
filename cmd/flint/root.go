package main

import (
	"github.com/cyw0ng95/flint/pkg/flint"
	"github.com/spf13/cobra"
)

// cli holds the engine shared by every subcommand of one invocation.
type cli struct {
	configPath string
	logLevel   string
	engine     *flint.Engine
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "flint",
		Short:         "Inspect and exercise the flint extension catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newCatalogCmd(c),
		newEvalCmd(c),
		newCallCmd(c),
		newSnapshotsCmd(c),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg := flint.DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = flint.LoadConfig(c.configPath); err != nil {
			return err
		}
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	cfg.LogOutput = cmd.ErrOrStderr()
	e, err := flint.Open(cfg)
	if err != nil {
		return err
	}
	c.engine = e
	return nil
}

func (c *cli) close() error {
	if c.engine == nil {
		return nil
	}
	err := c.engine.Close()
	c.engine = nil
	return err
}

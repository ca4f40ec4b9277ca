package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "intentiq",
		Short:         "Voice and text intent assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `intentiq classifies utterances into intents with a versioned classifier
and dispatches them to skills. Configuration comes from defaults, an optional
YAML file and INTENTIQ_* environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", os.Getenv("INTENTIQ_CONFIG"), "YAML config file")
	flags.StringVar(&c.family, "family", "", "classifier family (overrides config)")
	flags.StringVar(&c.version, "model-version", "", `model version: "latest", "3" or "v3" (overrides config)`)
	flags.StringVar(&c.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(
		newRunCmd(c),
		newPredictCmd(c),
		newVersionsCmd(c),
		newSkillsCmd(c),
		newEvaluateCmd(c),
		newServeCmd(c),
	)
	return root
}

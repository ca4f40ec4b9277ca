package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/intentiq/internal/app"
	"github.com/okian/intentiq/pkg/logger"
)

func newRunCmd(c *cli) *cobra.Command {
	var mode, audioFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interactive assistant loop",
		Long: `Run reads utterances from the terminal (text), from speech with escalation
to the accurate engine (voice) or from continuous fast recognition (listen),
classifies each one and dispatches it to a skill until a shutdown keyword or
the exit intent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if mode != "" {
				c.cfg.InputMode = mode
			}
			if audioFile != "" {
				c.cfg.AudioFile = audioFile
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			input, cleanup, err := c.input(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			parts, err := c.build(ctx, input, app.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			c.log.Info(ctx, "assistant starting",
				logger.String("family", string(parts.rec.Family())),
				logger.String("version", parts.rec.Version().String()),
				logger.String("input_mode", c.cfg.InputMode))
			return parts.engine.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&mode, "input", "", "input mode: text, voice or listen (overrides config)")
	cmd.Flags().StringVar(&audioFile, "audio-file", "", "replay a WAV or PCM16 file instead of the microphone")
	return cmd
}

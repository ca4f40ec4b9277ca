package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/intentiq/internal/adapters/worker"
	"github.com/okian/intentiq/internal/domain/intent"
	"github.com/okian/intentiq/internal/domain/textnorm"
	"github.com/okian/intentiq/pkg/logger"
)

func newEvaluateCmd(c *cli) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "evaluate DATASET.csv",
		Short: "Report accuracy and per-intent precision and recall on a labelled CSV",
		Long: `Evaluate loads the configured model, classifies every row of a CSV with
"intent" and "text" columns and prints accuracy, per-intent statistics and
the confusion matrix. Texts are preprocessed the same way as for training.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()

			pre := c.preprocessor()
			if pre == nil {
				pre = textnorm.New(textnorm.WithWakeWord(c.cfg.WakeWord), textnorm.WithFillerWords(c.cfg.FillerWords))
			}
			samples, err := intent.LoadSamplesCSV(f, pre)
			if err != nil {
				return err
			}

			store, err := c.store()
			if err != nil {
				return err
			}
			rec, err := c.recognizer(ctx, store)
			if err != nil {
				return err
			}
			texts := make([]string, len(samples))
			for i, s := range samples {
				texts[i] = s.Text
			}
			pool := worker.NewPool(workers, rec, c.log)
			preds, err := pool.PredictAll(ctx, texts)
			if err != nil {
				return err
			}
			rep, err := intent.Tally(samples, preds)
			if err != nil {
				return err
			}
			c.log.Info(ctx, "evaluation finished",
				logger.String("family", string(rec.Family())),
				logger.String("version", rec.Version().String()),
				logger.Int("samples", rep.Total),
				logger.Float64("accuracy", rep.Accuracy()))
			return rep.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent predictions (default one per CPU)")
	return cmd
}

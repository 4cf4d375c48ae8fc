package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/blini/pkg/blini"
	"github.com/japaniel/blini/pkg/db"
	"github.com/japaniel/blini/pkg/ingest"
	"github.com/japaniel/blini/pkg/markov"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the chain from the utterance log",
		Long: "Replay every logged utterance into a fresh chain and replace the stored chain with it. " +
			"Use after changing tokenization, or to undo tag removals.",
		RunE: runRebuild,
	}

	RootCmd.AddCommand(cmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		logged, err := db.ListUtterances(s.conn)
		if err != nil {
			return fmt.Errorf("list utterances: %w", err)
		}

		fresh, err := blini.New(
			blini.WithChain(markov.New()),
			blini.WithImages(s.engine.Images()),
			blini.WithLogger(s.logger),
		)
		if err != nil {
			return err
		}

		msgs := make([]ingest.Message, len(logged))
		for i, u := range logged {
			msgs[i] = ingest.Message{Text: u.Text, Tags: u.Tags}
		}
		ig := ingest.NewIngester(fresh)
		ig.Workers = s.cfg.Ingest.Workers
		ig.BatchSize = s.cfg.Ingest.BatchSize
		ig.Logger = s.logger
		learned, err := ig.Ingest(cmd.Context(), msgs)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		b, err := json.Marshal(fresh.Chain())
		if err != nil {
			return err
		}
		if err := db.SetItem(s.conn, blini.DictionaryKey, string(b)); err != nil {
			return err
		}
		s.logger.Info("Rebuilt chain",
			zap.Int("utterances", len(logged)),
			zap.Int("contexts", fresh.Chain().Len()))
		fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt chain from %d of %d utterances (%d contexts).\n",
			learned, len(logged), fresh.Chain().Len())
		return nil
	})
}

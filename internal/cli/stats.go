package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/blini/pkg/blini"
	"github.com/japaniel/blini/pkg/db"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE:  runStats,
	}

	RootCmd.AddCommand(cmd)
}

// Stats summarizes what the engine has learned.
type Stats struct {
	Version    string `json:"version"`
	Driver     string `json:"driver"`
	Database   string `json:"database"`
	Contexts   int    `json:"contexts"`
	Entries    int    `json:"entries"`
	Images     int    `json:"images"`
	Utterances int    `json:"utterances"`
}

func runStats(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		n, err := db.CountUtterances(s.conn)
		if err != nil {
			return fmt.Errorf("count utterances: %w", err)
		}
		stats := Stats{
			Version:    blini.Version(),
			Driver:     s.cfg.Database.Driver,
			Database:   s.cfg.Database.Path,
			Contexts:   s.engine.Chain().Len(),
			Entries:    s.engine.Chain().Size(),
			Images:     s.engine.Images().Len(),
			Utterances: n,
		}
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	})
}

// Package cli implements the blini CLI commands.
package cli

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/japaniel/blini/pkg/blini"
	"github.com/japaniel/blini/pkg/config"
	"github.com/japaniel/blini/pkg/db"
	"github.com/japaniel/blini/pkg/ingest"
	"github.com/japaniel/blini/pkg/markov"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "blini",
	Short:        "Markov chain chat text generator",
	Long:         "Learns from chat messages and articles and generates new messages from what it has seen. SQLite-backed.",
	Version:      blini.Version(),
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (YAML)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $BLINI_DB or database.path from config)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// session is everything a command needs: the restored engine, wired to
// persist its snapshots through a background batch writer.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	conn   *sql.DB
	bw     *ingest.BatchWriter
	engine *blini.Engine
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.GetLogLevel())
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	chain, reg, err := blini.Restore(db.KV{DB: conn})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("restore: %w", err)
	}
	reg.MaxAspectRatio = cfg.Images.MaxAspectRatio
	reg.Extensions = cfg.Images.Extensions

	engine, err := blini.New(
		blini.WithChain(chain),
		blini.WithImages(reg),
		blini.WithMaxChain(cfg.Generator.MaxChain),
		blini.WithLogger(logger),
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	bw := ingest.NewBatchWriter(conn, cfg.Ingest.BatchSize, cfg.GetFlushInterval())
	bw.OnError = func(err error) {
		logger.Error("Background write failed", zap.Error(err))
	}
	engine.PersistTo(ingest.NewAsyncStore(bw))

	logger.Debug("Session opened",
		zap.String("driver", cfg.Database.Driver),
		zap.String("db", cfg.Database.Path),
		zap.Int("contexts", chain.Len()),
		zap.Int("images", reg.Len()))

	return &session{cfg: cfg, logger: logger, conn: conn, bw: bw, engine: engine}, nil
}

// Close flushes pending writes and closes the database.
func (s *session) Close() error {
	err := s.bw.Close()
	if cerr := s.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	_ = s.logger.Sync()
	return err
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(fn func(s *session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	return errors.Join(fn(s), s.Close())
}

// tagFilter builds the filter selected by --tag and --value.
func tagFilter(cmd *cobra.Command) markov.Filter {
	name, _ := cmd.Flags().GetString("tag")
	value, _ := cmd.Flags().GetString("value")
	switch {
	case name == "":
		return markov.AnyTag()
	case value == "":
		return markov.HasTag(name)
	default:
		return markov.TagEquals(name, value)
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("tag", "t", "", "Restrict to entries carrying this tag")
	cmd.Flags().String("value", "", "Restrict to entries whose tag has this value")
}

func addTagsFlag(cmd *cobra.Command) {
	cmd.Flags().StringToStringP("tag", "t", nil, "Tags to attach, as name=value (repeatable)")
}

func tagsFlag(cmd *cobra.Command) markov.Tags {
	m, _ := cmd.Flags().GetStringToString("tag")
	if len(m) == 0 {
		return nil
	}
	return markov.Tags(m)
}

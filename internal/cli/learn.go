package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/blini/pkg/corpus"
	"github.com/japaniel/blini/pkg/db"
	"github.com/japaniel/blini/pkg/ingest"
)

// maxConcurrentFetches bounds parallel article downloads.
const maxConcurrentFetches = 4

func init() {
	cmd := &cobra.Command{
		Use:   "learn [message]",
		Short: "Learn messages",
		Long: "Learn a message given as arguments, one message per line from stdin, " +
			"every sentence of the articles at --url, or the messages of a --corpus file.",
		RunE: runLearn,
	}

	addTagsFlag(cmd)
	cmd.Flags().StringArrayP("url", "u", nil, "Article URL to learn from (repeatable)")
	cmd.Flags().String("corpus", "", "JSON corpus file of {text, tags} messages")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	urls, _ := cmd.Flags().GetStringArray("url")
	corpusPath, _ := cmd.Flags().GetString("corpus")
	tags := tagsFlag(cmd)

	var msgs []ingest.Message
	if len(args) > 0 {
		msgs = append(msgs, ingest.Message{Text: strings.Join(args, " "), Tags: tags})
	} else if len(urls) == 0 && corpusPath == "" {
		lines, err := readStdinLines()
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		for _, l := range lines {
			msgs = append(msgs, ingest.Message{Text: l, Tags: tags})
		}
	}

	if corpusPath != "" {
		loaded, err := corpus.LoadMessages(corpusPath)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		for _, m := range loaded {
			t := m.Tags
			if len(t) == 0 {
				t = tags
			}
			msgs = append(msgs, ingest.Message{Text: m.Text, Tags: t})
		}
	}

	if len(urls) > 0 {
		articles, err := fetchArticles(cmd.Context(), urls)
		if err != nil {
			return err
		}
		for _, a := range articles {
			for _, sentence := range a.Sentences {
				msgs = append(msgs, ingest.Message{Text: sentence, Tags: tags})
			}
		}
	}

	if len(msgs) == 0 {
		return fmt.Errorf("nothing to learn (give a message, --url, --corpus or stdin)")
	}

	return withSession(func(s *session) error {
		ig := ingest.NewIngester(s.engine)
		ig.Workers = s.cfg.Ingest.Workers
		ig.BatchSize = s.cfg.Ingest.BatchSize
		ig.Logger = s.logger
		ig.OnProgress = func(current, total int) {
			s.logger.Debug("Learn progress", zap.Int("current", current), zap.Int("total", total))
		}
		ig.OnLearned = func(m ingest.Message) {
			text, tags := m.Text, m.Tags
			if err := s.bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
				_, err := db.LogUtterance(tx, text, tags)
				return err
			}); err != nil {
				s.logger.Warn("Failed to log utterance", zap.Error(err))
			}
		}

		learned, err := ig.Ingest(cmd.Context(), msgs)
		if err != nil {
			return fmt.Errorf("learn: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Learned %d of %d messages.\n", learned, len(msgs))
		return nil
	})
}

// fetchArticles downloads urls concurrently and returns the articles in the
// order given.
func fetchArticles(ctx context.Context, urls []string) ([]*corpus.Article, error) {
	articles := make([]*corpus.Article, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, u := range urls {
		g.Go(func() error {
			a, err := corpus.FetchArticle(ctx, u)
			if err != nil {
				return err
			}
			articles[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return articles, nil
}

func readStdinLines() ([]string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Mode()&os.ModeCharDevice != 0 {
		return nil, nil
	}
	return readLines(os.Stdin)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, sc.Err()
}

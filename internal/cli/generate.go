package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate [seed]",
		Short: "Generate a message",
		Long:  "Generate a message. With a seed the message starts with the seed's words.",
		RunE:  runGenerate,
	}

	addFilterFlags(cmd)
	cmd.Flags().Bool("image", false, "Also print a base image URL matching the filter")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	withImage, _ := cmd.Flags().GetBool("image")
	f := tagFilter(cmd)
	seed := strings.Join(args, " ")

	return withSession(func(s *session) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, s.engine.Generate(seed, f))
		if withImage {
			rec, ok := s.engine.RandomImage(f)
			if !ok {
				return fmt.Errorf("no image matches")
			}
			fmt.Fprintln(out, rec.URL)
		}
		return nil
	})
}

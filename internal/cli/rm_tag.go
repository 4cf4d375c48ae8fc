package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/blini/pkg/markov"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remove-tag <name>",
		Short: "Forget everything learned with a tag",
		Long: "Remove every chain entry carrying the tag (or, with --value, the tag with that value). " +
			"With --images, filter the image registry instead.",
		Args: cobra.ExactArgs(1),
		RunE: runRemoveTag,
	}

	cmd.Flags().String("value", "", "Only remove entries whose tag has this value")
	cmd.Flags().Bool("images", false, "Remove images instead of chain entries")

	RootCmd.AddCommand(cmd)
}

func runRemoveTag(cmd *cobra.Command, args []string) error {
	value, _ := cmd.Flags().GetString("value")
	onImages, _ := cmd.Flags().GetBool("images")

	f := markov.HasTag(args[0])
	if value != "" {
		f = markov.TagEquals(args[0], value)
	}

	return withSession(func(s *session) error {
		out := cmd.OutOrStdout()
		if onImages {
			before := s.engine.Images().Len()
			s.engine.RemoveImageTag(f)
			fmt.Fprintf(out, "Removed %d images.\n", before-s.engine.Images().Len())
			return nil
		}
		before := s.engine.Chain().Size()
		s.engine.RemoveTag(f)
		fmt.Fprintf(out, "Removed %d entries.\n", before-s.engine.Chain().Size())
		return nil
	})
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/blini/pkg/images"
)

func init() {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Manage caption base images",
	}

	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Register an image",
		Long: "Register an image. When --width and --height are given the image is validated " +
			"(extension and aspect ratio) first; otherwise it is added as is.",
		Args: cobra.ExactArgs(1),
		RunE: runImageAdd,
	}
	addTagsFlag(add)
	add.Flags().Int("width", 0, "Image width in pixels")
	add.Flags().Int("height", 0, "Image height in pixels")

	rm := &cobra.Command{
		Use:   "rm <url>",
		Short: "Unregister an image",
		Args:  cobra.ExactArgs(1),
		RunE:  runImageRm,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered images",
		RunE:  runImageList,
	}
	addFilterFlags(list)

	imageCmd.AddCommand(add, rm, list)
	RootCmd.AddCommand(imageCmd)
}

func runImageAdd(cmd *cobra.Command, args []string) error {
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	tags := tagsFlag(cmd)

	return withSession(func(s *session) error {
		var ok bool
		if width > 0 || height > 0 {
			ok = s.engine.ProcessImage(images.Image{URL: args[0], Width: width, Height: height}, tags)
		} else {
			ok = s.engine.AddImage(args[0], tags)
		}
		if !ok {
			return fmt.Errorf("image %s rejected or already registered", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
		return nil
	})
}

func runImageRm(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		if !s.engine.RemoveImage(args[0]) {
			return fmt.Errorf("image %s is not registered", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	})
}

func runImageList(cmd *cobra.Command, args []string) error {
	f := tagFilter(cmd)
	return withSession(func(s *session) error {
		for _, rec := range s.engine.FilterImages(f).Records() {
			fmt.Fprintln(cmd.OutOrStdout(), rec.URL)
		}
		return nil
	})
}

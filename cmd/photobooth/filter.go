package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapstrip/photobooth/internal/filter"
)

var filterName string

var filterCmd = &cobra.Command{
	Use:   "filter <in> <out.png>",
	Short: "Apply a booth filter to an image",
	Example: `  photobooth filter portrait.jpg portrait-sepia.png --filter sepia
  photobooth filter still.webp still.png -f vintage`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := filter.ParseKind(filterName)
		if err != nil {
			return err
		}
		img, err := readImage(args[0])
		if err != nil {
			return err
		}
		if err := writePNG(args[1], filter.Filtered(img, k)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", args[0], args[1], k)
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVarP(&filterName, "filter", "f", "grayscale", "none, grayscale, sepia, vintage or soft")
	rootCmd.AddCommand(filterCmd)
}

package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/swatch/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the destination tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			configPath, _ := cmd.Flags().GetString("config")
			cache, _ := cmd.Flags().GetBool("cache")

			return c.app.Clean(cmd.Context(), cwd, app.CleanOptions{
				ConfigPath: configPath,
				Cache:      cache,
			})
		},
	}
	cmd.Flags().Bool("cache", false, "Also remove the build cache")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/swatch/internal/core/domain"
)

func (c *CLI) newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Compile the styles, then check them for near-duplicate colors and report their metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.build(cmd, []string{domain.TaskTest})
		},
	}
}

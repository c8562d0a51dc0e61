package commands

import "github.com/spf13/cobra"

func (c *CLI) newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the dish categories",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			emit(cmd, c.renderer(cmd).Categories(c.app.Categories()))
		},
	}
}

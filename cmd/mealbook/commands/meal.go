package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			query, _ := cmd.Flags().GetString("search")
			meals, err := c.app.Meals(query)
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).MealList(meals))
			return nil
		},
	}
	cmd.Flags().StringP("search", "s", "", "Only list meals whose name contains this text")
	return cmd
}

func (c *CLI) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a meal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.AddMeal(strings.Join(args, " "))
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("added", meal))
			return nil
		},
	}
}

func (c *CLI) newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <meal> <name>",
		Short: "Rename a meal",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.RenameMeal(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("renamed", meal))
			return nil
		},
	}
}

func (c *CLI) newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <meal>",
		Short: "Duplicate a meal with all its dishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.CopyMeal(args[0])
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("copied", meal))
			return nil
		},
	}
}

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <meal>",
		Short: "Show a meal's dishes grouped by category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks, _ := cmd.Flags().GetStringArray("check")
			checklist, err := parseChecks(checks)
			if err != nil {
				return err
			}
			if err := c.open(cmd); err != nil {
				return err
			}
			view, err := c.app.ShowMeal(args[0])
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Meal(view.Meal, view.Groups, checklist))
			return nil
		},
	}
	cmd.Flags().StringArray("check", nil, "Mark a grocery as checked off, as dish:grocery (repeatable)")
	return cmd
}

// parseChecks builds a checklist from dish:grocery arguments.
// Repeating an argument toggles it off again.
func parseChecks(args []string) (*domain.Checklist, error) {
	checklist := domain.NewChecklist()
	for _, arg := range args {
		dish, grocery, ok := strings.Cut(arg, ":")
		if !ok || dish == "" || grocery == "" {
			return nil, zerr.With(domain.ErrInvalidCheck, "check", arg)
		}
		checklist.Toggle(dish, grocery)
	}
	return checklist, nil
}

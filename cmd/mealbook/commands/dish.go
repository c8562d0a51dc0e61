package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/engine/dishedit"
	"go.trai.ch/zerr"
)

func (c *CLI) newDishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dish",
		Short: "Add, edit or remove the dishes of a meal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(c.newDishAddCmd())
	cmd.AddCommand(c.newDishEditCmd())
	cmd.AddCommand(c.newDishRemoveCmd())
	return cmd
}

func (c *CLI) newDishAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <meal> <name>",
		Short: "Append a dish to a meal",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := dishedit.NewDraft()
			draft.Name = strings.Join(args[1:], " ")
			if err := applyDishFlags(cmd.Flags(), &draft); err != nil {
				return err
			}
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.AddDish(args[0], draft)
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("updated", meal))
			return nil
		},
	}
	addDishFlags(cmd.Flags())
	return cmd
}

func (c *CLI) newDishEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <meal> <index>",
		Short: "Edit a dish in place",
		Long: "Edit the dish at index, as shown by 'mealbook show'. " +
			"Flags that are not given keep the dish's current values.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			// Reject bad flags before the store is opened.
			if err := applyDishFlags(cmd.Flags(), new(dishedit.Draft)); err != nil {
				return err
			}
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.EditDish(args[0], index, func(d *dishedit.Draft) error {
				if cmd.Flags().Changed("name") {
					d.Name, _ = cmd.Flags().GetString("name")
				}
				if cmd.Flags().Changed("clear-groceries") {
					d.Groceries = nil
				}
				return applyDishFlags(cmd.Flags(), d)
			})
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("updated", meal))
			return nil
		},
	}
	cmd.Flags().String("name", "", "New dish name")
	cmd.Flags().Bool("clear-groceries", false, "Remove all groceries before adding the given ones")
	addDishFlags(cmd.Flags())
	return cmd
}

func (c *CLI) newDishRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <meal> <index>",
		Aliases: []string{"remove"},
		Short:   "Remove a dish from a meal",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			if err := c.open(cmd); err != nil {
				return err
			}
			meal, err := c.app.DeleteDish(args[0], index)
			if err != nil {
				return err
			}
			emit(cmd, c.renderer(cmd).Saved("updated", meal))
			return nil
		},
	}
}

func addDishFlags(flags *pflag.FlagSet) {
	flags.String("category", "", "Dish category (see 'mealbook categories')")
	flags.String("custom", "", "Free-form category, implies --category Custom")
	flags.StringArray("grocery", nil, "Grocery as name or name=quantity (repeatable)")
}

// applyDishFlags copies the category and grocery flags that were given onto d.
func applyDishFlags(flags *pflag.FlagSet, d *dishedit.Draft) error {
	if flags.Changed("category") {
		name, _ := flags.GetString("category")
		category, err := ParseCategory(name)
		if err != nil {
			return err
		}
		d.Category = category
		if category != domain.CategoryCustom {
			d.CustomCategory = ""
		}
	}

	if flags.Changed("custom") {
		custom, _ := flags.GetString("custom")
		d.Category = domain.CategoryCustom
		d.CustomCategory = custom
	}

	groceries, _ := flags.GetStringArray("grocery")
	for _, g := range groceries {
		name, quantity, _ := strings.Cut(g, "=")
		if !d.AddGrocery(name) {
			return zerr.With(domain.ErrInvalidGrocery, "grocery", g)
		}
		d.SetQuantity(len(d.Groceries)-1, strings.TrimSpace(quantity))
	}
	return nil
}

// ParseCategory matches name against the selectable categories, ignoring case.
func ParseCategory(name string) (string, error) {
	name = strings.TrimSpace(name)
	for _, c := range domain.Categories() {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	return "", zerr.With(domain.ErrUnknownCategory, "category", name)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, zerr.With(domain.ErrInvalidDishIndex, "index", arg)
	}
	return index, nil
}

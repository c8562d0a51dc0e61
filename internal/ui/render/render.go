// Package render formats meals for terminal output.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/engine/grouping"
	"go.trai.ch/mealbook/internal/ui/output"
	"go.trai.ch/mealbook/internal/ui/style"
)

// ShortIDLen is the number of id characters shown in listings.
const ShortIDLen = 8

// Uncategorized is shown for dish items with an empty custom category.
const Uncategorized = "(no category)"

// Renderer renders meals with the color profile of its writer.
type Renderer struct {
	title   lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
	checked lipgloss.Style
}

// New creates a Renderer for output written to w.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile(w))
	return &Renderer{
		title:   r.NewStyle().Bold(true),
		header:  r.NewStyle().Bold(true).Foreground(style.Basil),
		muted:   r.NewStyle().Foreground(style.Slate),
		checked: r.NewStyle().Foreground(style.Basil),
	}
}

// ShortID returns the listing prefix of id.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// MealList renders one line per meal.
func (r *Renderer) MealList(meals []domain.Meal) string {
	if len(meals) == 0 {
		return r.muted.Render("No meals yet.") + "\n"
	}

	var b strings.Builder
	for _, m := range meals {
		fmt.Fprintf(&b, "%s  %s %s\n",
			r.muted.Render(ShortID(m.ID)),
			m.Name,
			r.muted.Render(dishCount(len(m.DishItems))),
		)
	}
	return b.String()
}

// Meal renders a meal's dish items grouped by category.
// Each dish item shows the index used to edit or delete it.
func (r *Renderer) Meal(meal domain.Meal, groups []grouping.Group, checks *domain.Checklist) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.title.Render(meal.Name), r.muted.Render(meal.ID))

	if len(groups) == 0 {
		b.WriteString(r.muted.Render("No dishes yet.") + "\n")
		return b.String()
	}

	for _, g := range groups {
		category := g.Category
		if category == "" {
			category = Uncategorized
		}
		b.WriteString("\n" + r.header.Render(category) + "\n")

		for _, e := range g.Items {
			fmt.Fprintf(&b, "  %s %s\n", r.muted.Render(fmt.Sprintf("[%d]", e.Index)), e.Item.Name)
			for _, line := range e.Item.Groceries {
				b.WriteString("      " + r.grocery(e.Item.Name, line, checks) + "\n")
			}
		}
	}
	return b.String()
}

func (r *Renderer) grocery(dish string, line domain.GroceryLine, checks *domain.Checklist) string {
	text := line.Name
	if line.Quantity != "" {
		text += " " + r.muted.Render(line.Quantity)
	}
	if checks != nil && checks.IsChecked(dish, line.Name) {
		return r.checked.Render(style.Check) + " " + text
	}
	return style.Circle + " " + text
}

// Categories renders the selectable categories, marking the custom sentinel.
func (r *Renderer) Categories(categories []string) string {
	var b strings.Builder
	for _, c := range categories {
		if c == domain.CategoryCustom {
			fmt.Fprintf(&b, "%s %s\n", c, r.muted.Render("(use --custom to name it)"))
			continue
		}
		b.WriteString(c + "\n")
	}
	return b.String()
}

// Saved renders a confirmation line for a changed meal.
func (r *Renderer) Saved(verb string, meal domain.Meal) string {
	return fmt.Sprintf("%s %s %s %s\n",
		r.checked.Render(style.Check), verb, meal.Name, r.muted.Render(ShortID(meal.ID)))
}

func dishCount(n int) string {
	if n == 1 {
		return "(1 dish)"
	}
	return fmt.Sprintf("(%d dishes)", n)
}

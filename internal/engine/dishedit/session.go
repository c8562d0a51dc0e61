package dishedit

import "go.trai.ch/mealbook/internal/core/domain"

// Session is an open dish edit session for one meal.
// An edit session caches the index of the item being edited; the index goes
// stale when an earlier item is deleted and must be rebased before use.
type Session struct {
	Draft  Draft
	target *int
	valid  bool
}

// Create opens a session that appends a new dish item.
func Create() *Session {
	return &Session{Draft: NewDraft(), valid: true}
}

// Edit opens a session pre-filled from the dish item at index.
// A category outside the fixed set is shown as Custom with its text.
func Edit(meal domain.Meal, index int) (*Session, bool) {
	if index < 0 || index >= len(meal.DishItems) {
		return nil, false
	}
	item := meal.DishItems[index]

	d := Draft{Name: item.Name, Category: item.Category}
	if !domain.IsFixedCategory(item.Category) {
		d.Category = domain.CategoryCustom
		d.CustomCategory = item.Category
	}
	for _, g := range item.Groceries {
		d.Groceries = append(d.Groceries, GroceryEntry(g))
	}

	i := index
	return &Session{Draft: d, target: &i, valid: true}, true
}

// Target returns the index being edited, or nil in create mode.
func (s *Session) Target() *int {
	if s.target == nil {
		return nil
	}
	i := *s.target
	return &i
}

// Editing reports whether the session replaces an existing item.
func (s *Session) Editing() bool {
	return s.target != nil
}

// Valid reports whether the session can still be applied.
func (s *Session) Valid() bool {
	return s.valid
}

// Rebase adjusts the cached target after the item at deleted was removed.
// Deleting the edited item itself invalidates the session.
func (s *Session) Rebase(deleted int) bool {
	if !s.valid || s.target == nil {
		return s.valid
	}
	switch {
	case deleted == *s.target:
		s.valid = false
	case deleted < *s.target:
		*s.target--
	}
	return s.valid
}

// Apply merges the session draft into meal.
func (s *Session) Apply(meal domain.Meal) (domain.Meal, bool) {
	if !s.valid {
		return meal, false
	}
	return Apply(meal, s.Draft, s.target)
}

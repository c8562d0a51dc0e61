package domain

// CheckKey identifies a grocery line for check-off purposes.
// Two groceries with the same name in the same dish share a key.
type CheckKey struct {
	Dish    string
	Grocery string
}

// Checklist is the transient check-off state of one viewing session of one meal.
// It is never persisted. The zero value is ready to use.
type Checklist struct {
	checked map[CheckKey]bool
}

// NewChecklist returns an empty checklist.
func NewChecklist() *Checklist {
	return &Checklist{}
}

// Toggle flips the flag for the grocery and returns the new value.
func (c *Checklist) Toggle(dish, grocery string) bool {
	key := CheckKey{Dish: dish, Grocery: grocery}
	v := !c.checked[key]
	c.Set(dish, grocery, v)
	return v
}

// Set assigns the flag for the grocery.
func (c *Checklist) Set(dish, grocery string, checked bool) {
	if c.checked == nil {
		c.checked = make(map[CheckKey]bool)
	}
	key := CheckKey{Dish: dish, Grocery: grocery}
	if !checked {
		delete(c.checked, key)
		return
	}
	c.checked[key] = true
}

// IsChecked reports whether the grocery is checked off.
func (c *Checklist) IsChecked(dish, grocery string) bool {
	return c.checked[CheckKey{Dish: dish, Grocery: grocery}]
}

// Len returns the number of checked keys.
func (c *Checklist) Len() int {
	return len(c.checked)
}

// Reset discards all check-off state.
func (c *Checklist) Reset() {
	c.checked = nil
}

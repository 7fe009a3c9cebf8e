package mealform

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/errors"
)

// DefaultQuantity is the quantity of a freshly added row. Submitted quantity
// inputs that don't parse as a non-negative integer leave the model value
// unchanged, so a row never holds anything but DefaultQuantity or a value the
// user entered.
const DefaultQuantity = 0

// Lookup resolves food ids against the catalog.
type Lookup interface {
	FindByID(id api.ID) (api.Food, bool)
}

// Item is one selected food with its quantity.
type Item struct {
	Food     api.Food
	Quantity int
}

// HiddenField is a hidden form input marking a selected food.
type HiddenField struct {
	Name  string
	Value string
}

// Row is one visible row of the selected-foods table.
type Row struct {
	FoodID       api.ID
	Label        string
	Calories     string
	QuantityName string
	Quantity     int
}

// HiddenFieldName is the form field name of a food's hidden marker.
func HiddenFieldName(id api.ID) string { return "foods[" + string(id) + "]" }

// QuantityFieldName is the form field name of a food's quantity input.
func QuantityFieldName(id api.ID) string { return "quantity[" + string(id) + "]" }

// FoodLabel renders "Name (unit)".
func FoodLabel(f api.Food) string { return fmt.Sprintf("%s (%s)", f.Name, f.Unit) }

// Table is the ordered set of foods selected on one form instance.
// It is not safe for concurrent use.
type Table struct {
	instance Instance
	lookup   Lookup
	items    []Item
	onChange func(Instance)
}

// NewTable creates an empty table for instance.
func NewTable(instance Instance, lookup Lookup) *Table {
	return &Table{instance: instance, lookup: lookup}
}

// OnChange registers fn to run after every user mutation (Add, Remove,
// SetQuantity). Bulk Load and Reset do not fire it.
func (t *Table) OnChange(fn func(Instance)) {
	t.onChange = fn
}

// Instance returns the form instance the table belongs to.
func (t *Table) Instance() Instance { return t.instance }

func (t *Table) changed() {
	if t.onChange != nil {
		t.onChange(t.instance)
	}
}

func (t *Table) index(id api.ID) int {
	for i, it := range t.items {
		if it.Food.ID == id {
			return i
		}
	}
	return -1
}

// Add appends foodID with DefaultQuantity. It is a no-op returning false
// when the food is unknown to the catalog or already in the table.
func (t *Table) Add(foodID api.ID) bool {
	if t.index(foodID) >= 0 {
		return false
	}
	food, ok := t.lookup.FindByID(foodID)
	if !ok {
		return false
	}
	t.items = append(t.items, Item{Food: food, Quantity: DefaultQuantity})
	t.changed()
	return true
}

// Remove drops foodID. It is a no-op returning false when absent.
func (t *Table) Remove(foodID api.ID) bool {
	i := t.index(foodID)
	if i < 0 {
		return false
	}
	t.items = append(t.items[:i], t.items[i+1:]...)
	t.changed()
	return true
}

// SetQuantity writes a quantity input back into the model.
func (t *Table) SetQuantity(foodID api.ID, quantity int) error {
	if quantity < 0 {
		return errors.NewInvalidRequest("quantity must be a non-negative integer")
	}
	i := t.index(foodID)
	if i < 0 {
		return errors.NewNotFound("selected food", string(foodID))
	}
	t.items[i].Quantity = quantity
	t.changed()
	return nil
}

// ApplyQuantities copies submitted quantity[<id>] inputs into the model.
// Missing, unparseable or negative values keep the current quantity.
// It reports whether any quantity changed; it does not fire OnChange.
func (t *Table) ApplyQuantities(values url.Values) bool {
	changed := false
	for i := range t.items {
		raw, ok := values[QuantityFieldName(t.items[i].Food.ID)]
		if !ok || len(raw) == 0 {
			continue
		}
		q, ok := ParseQuantity(raw[len(raw)-1])
		if !ok || q == t.items[i].Quantity {
			continue
		}
		t.items[i].Quantity = q
		changed = true
	}
	return changed
}

// ParseQuantity parses a quantity input value.
func ParseQuantity(s string) (int, bool) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || q < 0 {
		return 0, false
	}
	return q, true
}

// Load replaces the table contents without firing OnChange. Later
// duplicates of a food id are dropped; negative quantities become
// DefaultQuantity.
func (t *Table) Load(items []Item) {
	t.items = nil
	for _, it := range items {
		if it.Food.ID == "" || t.index(it.Food.ID) >= 0 {
			continue
		}
		if it.Quantity < 0 {
			it.Quantity = DefaultQuantity
		}
		t.items = append(t.items, it)
	}
}

// Reset empties the table without firing OnChange.
func (t *Table) Reset() {
	t.items = nil
}

// Len returns the number of selected foods.
func (t *Table) Len() int { return len(t.items) }

// Contains reports whether foodID is selected.
func (t *Table) Contains(foodID api.ID) bool { return t.index(foodID) >= 0 }

// List returns the selected entries in insertion order.
func (t *Table) List() []api.SelectedFoodEntry {
	out := make([]api.SelectedFoodEntry, len(t.items))
	for i, it := range t.items {
		out[i] = api.SelectedFoodEntry{FoodID: it.Food.ID, Quantity: it.Quantity}
	}
	return out
}

// Items returns a copy of the selected foods with quantities.
func (t *Table) Items() []Item {
	return append([]Item(nil), t.items...)
}

// HiddenFields is the hidden-input view submitted with the form.
func (t *Table) HiddenFields() []HiddenField {
	out := make([]HiddenField, len(t.items))
	for i, it := range t.items {
		out[i] = HiddenField{Name: HiddenFieldName(it.Food.ID), Value: string(it.Food.ID)}
	}
	return out
}

// Rows is the visible table view.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.items))
	for i, it := range t.items {
		out[i] = Row{
			FoodID:       it.Food.ID,
			Label:        FoodLabel(it.Food),
			Calories:     api.FormatCalories(it.Food.Calories) + " kcal",
			QuantityName: QuantityFieldName(it.Food.ID),
			Quantity:     it.Quantity,
		}
	}
	return out
}

// TotalCalories sums calories * quantity over the selection.
func (t *Table) TotalCalories() float64 {
	var total float64
	for _, it := range t.items {
		total += it.Food.Calories * float64(it.Quantity)
	}
	return total
}

// Package autocomplete implements search-as-you-type over the food catalog
// for one meal form.
package autocomplete

import (
	"fmt"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
)

// Placeholder is the label of the non-selectable option shown when a query
// matches nothing.
const Placeholder = "No food found"

// Searcher filters the catalog by name.
type Searcher interface {
	Search(query string) []api.Food
}

// Option is one entry of the result list.
type Option struct {
	Value      api.ID
	Label      string
	Selectable bool
}

// OptionLabel renders "Name (unit) - N kcal".
func OptionLabel(f api.Food) string {
	return fmt.Sprintf("%s - %s kcal", mealform.FoodLabel(f), api.FormatCalories(f.Calories))
}

// State is the rendered state of a widget.
type State struct {
	Instance mealform.Instance
	Query    string
	Visible  bool
	Options  []Option
	Selected api.ID
}

// Widget is the autocomplete attached to one form's table.
type Widget struct {
	searcher Searcher
	table    *mealform.Table
	query    string
	options  []Option
	selected api.ID
}

// New creates a widget adding confirmed foods to table.
func New(searcher Searcher, table *mealform.Table) *Widget {
	return &Widget{searcher: searcher, table: table}
}

// Input handles one keystroke with the full query text.
func (w *Widget) Input(query string) State {
	w.query = query
	w.selected = ""
	w.options = nil

	if query == "" {
		return w.State()
	}

	for _, f := range w.searcher.Search(query) {
		w.options = append(w.options, Option{Value: f.ID, Label: OptionLabel(f), Selectable: true})
	}
	if len(w.options) == 0 {
		w.options = []Option{{Label: Placeholder}}
	} else {
		w.selected = w.options[0].Value
	}
	return w.State()
}

// Select highlights the option for foodID.
func (w *Widget) Select(foodID api.ID) error {
	for _, o := range w.options {
		if o.Selectable && o.Value == foodID {
			w.selected = foodID
			return nil
		}
	}
	return errors.NewInvalidRequest(fmt.Sprintf("food %q is not among the current results", foodID))
}

// Confirm adds the selected food to the table, then clears the query and
// hides the results. Without a selection it does nothing and returns false.
func (w *Widget) Confirm() bool {
	if w.selected == "" {
		return false
	}
	w.table.Add(w.selected)
	w.query = ""
	w.options = nil
	w.selected = ""
	return true
}

// State returns the current widget state.
func (w *Widget) State() State {
	return State{
		Instance: w.table.Instance(),
		Query:    w.query,
		Visible:  len(w.options) > 0,
		Options:  append([]Option(nil), w.options...),
		Selected: w.selected,
	}
}

package mealform

import (
	"net/url"
	"strings"

	"github.com/tftdiet/tft/internal/api"
)

// Form is the state of one meal form: title, date, selected foods and, for
// the edit instance, the id of the meal being edited.
type Form struct {
	instance Instance
	title    string
	date     string
	mealID   api.ID
	table    *Table
	onChange func(Instance)
}

// NewForm creates an empty form for instance.
func NewForm(instance Instance, lookup Lookup) *Form {
	f := &Form{instance: instance, table: NewTable(instance, lookup)}
	f.table.OnChange(func(Instance) { f.changed() })
	return f
}

// OnChange registers fn to run after every user edit of the form,
// including edits to its table.
func (f *Form) OnChange(fn func(Instance)) {
	f.onChange = fn
}

func (f *Form) changed() {
	if f.onChange != nil {
		f.onChange(f.instance)
	}
}

// Instance returns the form instance.
func (f *Form) Instance() Instance { return f.instance }

// Title returns the meal title field.
func (f *Form) Title() string { return f.title }

// Date returns the meal date field as entered (datetime-local form).
func (f *Form) Date() string { return f.date }

// MealID returns the id of the meal loaded into an edit form.
func (f *Form) MealID() api.ID { return f.mealID }

// Table returns the selected-foods table.
func (f *Form) Table() *Table { return f.table }

// Entries returns the selected foods for submission.
func (f *Form) Entries() []api.SelectedFoodEntry { return f.table.List() }

// SetFields sets title and date as a user edit.
func (f *Form) SetFields(title, date string) {
	f.title = title
	f.date = strings.TrimSpace(date)
	f.changed()
}

// Input applies one form input event: title, date and quantity[<id>]
// fields present in values overwrite the model. OnChange fires once.
func (f *Form) Input(values url.Values) {
	if _, ok := values["title"]; ok {
		f.title = values.Get("title")
	}
	if _, ok := values["date"]; ok {
		f.date = strings.TrimSpace(values.Get("date"))
	}
	f.table.ApplyQuantities(values)
	f.changed()
}

// Populate replaces the whole form without firing OnChange.
func (f *Form) Populate(mealID api.ID, title, date string, items []Item) {
	f.mealID = mealID
	f.title = title
	f.date = strings.TrimSpace(date)
	f.table.Load(items)
}

// Reset empties the form without firing OnChange.
func (f *Form) Reset() {
	f.mealID = ""
	f.title = ""
	f.date = ""
	f.table.Reset()
}

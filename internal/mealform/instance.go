// Package mealform models the foods attached to a meal form. The Table is
// the authoritative state; hidden fields and visible rows are views derived
// from it, and submitted quantity inputs write back into it.
package mealform

import (
	"fmt"

	"github.com/tftdiet/tft/internal/errors"
)

// Instance identifies one of the two parallel meal forms.
type Instance string

const (
	New  Instance = "new"
	Edit Instance = "edit"
)

// Instances lists every form instance.
var Instances = []Instance{New, Edit}

// ParseInstance validates a form instance name.
func ParseInstance(s string) (Instance, error) {
	switch Instance(s) {
	case New, Edit:
		return Instance(s), nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown form instance %q (want new or edit)", s))
}

func (i Instance) prefix() string {
	if i == Edit {
		return "edit-"
	}
	return ""
}

// FormID is the id of the form element.
func (i Instance) FormID() string {
	if i == Edit {
		return "edit-meal-form"
	}
	return "new-meal-form"
}

// DataContainerID is the id of the element holding the hidden food fields.
func (i Instance) DataContainerID() string { return i.prefix() + "foods-data-container" }

// TableBodyID is the id of the visible selected-foods table body.
func (i Instance) TableBodyID() string { return i.prefix() + "selected-foods-table-body" }

// AutocompleteInputID is the id of the food search input.
func (i Instance) AutocompleteInputID() string { return i.prefix() + "autocomplete-input" }

// AutocompleteResultsID is the id of the food search result list.
func (i Instance) AutocompleteResultsID() string { return i.prefix() + "autocomplete-results" }

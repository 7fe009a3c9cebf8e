// Package ops implements the operations shared by the web UI, the CLI and
// the MCP server. Every function expects the caller to hold the app lock for
// the duration of the call.
package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/draft"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
)

// DisplayDateLayout formats meal dates in the meal list.
const DisplayDateLayout = "02/01/2006 15:04"

// Notification texts shown after remote operations.
const (
	MsgMealCreated     = "Meal created successfully!"
	MsgMealCreateError = "Error creating meal. Please try again."
	MsgMealUpdated     = "Meal updated successfully!"
	MsgMealUpdateError = "Error updating meal. Please try again."
	MsgMealDeleted     = "Meal deleted successfully!"
	MsgMealDeleteError = "Error deleting meal. Please try again."
	MsgMealLoadError   = "Error loading meal. Please try again."
	MsgProfileSaved    = "Personal information updated successfully!"
	MsgProfileError    = "Error updating personal information. Please try again."
)

// ParseFormDate parses a form date. It accepts the datetime-local layout in
// loc, and RFC 3339.
func ParseFormDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(draft.DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("date must look like %s, got %q", draft.DateLayout, s))
}

// FormatFormDate renders t in loc using the datetime-local layout.
func FormatFormDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(draft.DateLayout)
}

// mealRequest builds the remote request body from a form. An empty date
// means now.
func mealRequest(a *app.App, f *mealform.Form) (api.MealRequest, error) {
	title := strings.TrimSpace(f.Title())
	if title == "" {
		return api.MealRequest{}, errors.NewInvalidRequest("title is required")
	}

	when := a.Now()
	if f.Date() != "" {
		t, err := ParseFormDate(f.Date(), a.Location)
		if err != nil {
			return api.MealRequest{}, err
		}
		when = t
	}

	return api.MealRequest{
		Title: title,
		Date:  when.UTC().Format(time.RFC3339),
		Foods: f.Entries(),
	}, nil
}

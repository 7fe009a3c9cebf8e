package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a remote identifier. The API is not consistent about encoding ids as
// JSON strings or numbers, so both decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// Food is immutable catalog reference data.
type Food struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
}

// SelectedFoodEntry is one food attached to a meal draft.
type SelectedFoodEntry struct {
	FoodID   ID  `json:"id"`
	Quantity int `json:"quantity"`
}

// MealFood is a food as embedded in a stored meal.
type MealFood struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	Quantity int     `json:"quantity"`
}

// Food returns the catalog view of the meal food.
func (f MealFood) Food() Food {
	return Food{ID: f.ID, Name: f.Name, Unit: f.Unit, Calories: f.Calories}
}

// Meal is a stored meal as returned by the remote API.
type Meal struct {
	ID    ID         `json:"id"`
	Title string     `json:"title"`
	Date  time.Time  `json:"date"`
	Foods []MealFood `json:"foods"`
}

// wireMeal is Meal as decoded from the remote, before its date is parsed.
type wireMeal struct {
	ID    ID         `json:"id"`
	Title string     `json:"title"`
	Date  string     `json:"date"`
	Foods []MealFood `json:"foods"`
}

func (w wireMeal) meal(loc *time.Location) (Meal, error) {
	date, err := ParseTimestamp(w.Date, loc)
	if err != nil {
		return Meal{}, fmt.Errorf("meal %s: %w", w.ID, err)
	}
	return Meal{ID: w.ID, Title: w.Title, Date: date, Foods: w.Foods}, nil
}

// timestampLayouts are the ISO-8601 forms accepted without a zone offset.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date. RFC 3339 input keeps its offset;
// input without one is read as wall-clock time in loc. An empty string is
// the zero time.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// TotalCalories sums calories * quantity over the meal's foods.
func (m Meal) TotalCalories() float64 {
	var total float64
	for _, f := range m.Foods {
		total += f.Calories * float64(f.Quantity)
	}
	return total
}

// MealRequest is the body of POST /meals and PUT /meals/{id}.
type MealRequest struct {
	Title string              `json:"title"`
	Date  string              `json:"date"`
	Foods []SelectedFoodEntry `json:"foods"`
}

// ActivityLevel is an option for the personal-info form.
type ActivityLevel struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Goal is an option for the personal-info form.
type Goal struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PersonalInfo is the user's profile used for BMR/TDEE.
type PersonalInfo struct {
	Age             int     `json:"age"`
	Gender          string  `json:"gender"`
	Weight          float64 `json:"weight"`
	Height          int     `json:"height"`
	ActivityLevelID int     `json:"activity_level_id"`
	GoalID          int     `json:"goal_id"`
}

// Rates holds basal and total daily energy expenditure.
type Rates struct {
	BMR  float64 `json:"bmr"`
	TDEE float64 `json:"tdee"`
}

// HistoryItem is one day of consumed calories. Weekday is 0 for Monday
// through 6 for Sunday.
type HistoryItem struct {
	Value   float64 `json:"value"`
	Weekday int     `json:"weekday"`
}

// FormatCalories renders a calorie figure without trailing zeros.
func FormatCalories(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

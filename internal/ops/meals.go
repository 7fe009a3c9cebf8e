package ops

import (
	"context"
	"sort"
	"time"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/notify"
)

// MealSummary is one row of the meal list.
type MealSummary struct {
	ID            api.ID    `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	DisplayDate   string    `json:"display_date"`
	TotalCalories float64   `json:"total_calories"`
	FoodCount     int       `json:"food_count"`
}

// ListMealsOutput contains the result of the ListMeals operation.
type ListMealsOutput struct {
	Meals []MealSummary `json:"meals"`
}

// ListMeals fetches every meal, newest first.
func ListMeals(ctx context.Context, a *app.App) (*ListMealsOutput, error) {
	meals, err := a.API.Meals(ctx)
	if err != nil {
		return nil, err
	}
	return &ListMealsOutput{Meals: summarize(meals, a)}, nil
}

func summarize(meals []api.Meal, a *app.App) []MealSummary {
	sort.SliceStable(meals, func(i, j int) bool { return meals[i].Date.After(meals[j].Date) })

	out := make([]MealSummary, 0, len(meals))
	for _, m := range meals {
		out = append(out, MealSummary{
			ID:            m.ID,
			Title:         m.Title,
			Date:          m.Date,
			DisplayDate:   m.Date.In(a.Location).Format(DisplayDateLayout),
			TotalCalories: m.TotalCalories(),
			FoodCount:     len(m.Foods),
		})
	}
	return out
}

// refreshMeals reloads the list after a mutation. A failed reload is logged
// and yields an empty list; the mutation itself already succeeded.
func refreshMeals(ctx context.Context, a *app.App) []MealSummary {
	out, err := ListMeals(ctx, a)
	if err != nil {
		a.Logger.Warn("reloading meals failed", "error", err)
		return []MealSummary{}
	}
	return out.Meals
}

// MutationOutput contains the result of a meal create, update or delete.
type MutationOutput struct {
	MealID api.ID        `json:"meal_id,omitempty"`
	Notice notify.Notice `json:"notice"`
	Meals  []MealSummary `json:"meals"`
}

// CreateMeal submits the new-meal form. On success the draft is cleared,
// the chart is invalidated and the list reloaded. On failure a danger
// notice is posted and the draft is left intact.
func CreateMeal(ctx context.Context, a *app.App) (*MutationOutput, error) {
	req, err := mealRequest(a, a.NewForm)
	if err == nil {
		err = a.API.CreateMeal(ctx, req)
	}
	if err != nil {
		a.Notices.Danger(MsgMealCreateError)
		a.Logger.Warn("create meal failed", "error", err)
		return nil, err
	}

	notice := a.Notices.Success(MsgMealCreated)
	a.Chart.Invalidate()
	if err := a.Draft.Clear(ctx); err != nil {
		a.Logger.Warn("clearing draft after create failed", "error", err)
	}
	a.Logger.Info("meal created", "title", req.Title, "foods", len(req.Foods))

	return &MutationOutput{Notice: notice, Meals: refreshMeals(ctx, a)}, nil
}

// EditMealOutput describes the meal loaded into the edit form.
type EditMealOutput struct {
	MealID api.ID                  `json:"meal_id"`
	Title  string                  `json:"title"`
	Date   string                  `json:"date"`
	Foods  []api.SelectedFoodEntry `json:"foods"`
}

// EditMeal fetches a meal and loads it into the edit form. The stored UTC
// date is shown in the configured zone.
func EditMeal(ctx context.Context, a *app.App, id string) (*EditMealOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("meal id is required")
	}
	meal, err := a.API.Meal(ctx, id)
	if err != nil {
		a.Notices.Danger(MsgMealLoadError)
		a.Logger.Warn("load meal failed", "id", id, "error", err)
		return nil, err
	}

	items := make([]mealform.Item, 0, len(meal.Foods))
	for _, f := range meal.Foods {
		items = append(items, mealform.Item{Food: f.Food(), Quantity: f.Quantity})
	}
	date := FormatFormDate(meal.Date, a.Location)
	a.EditForm.Populate(meal.ID, meal.Title, date, items)

	return &EditMealOutput{
		MealID: meal.ID,
		Title:  meal.Title,
		Date:   date,
		Foods:  a.EditForm.Entries(),
	}, nil
}

// UpdateMeal submits the edit form for the meal it was loaded with. On
// success the edit form is reset.
func UpdateMeal(ctx context.Context, a *app.App) (*MutationOutput, error) {
	id := a.EditForm.MealID()
	if id == "" {
		return nil, errors.NewInvalidRequest("no meal loaded for editing")
	}

	req, err := mealRequest(a, a.EditForm)
	if err == nil {
		err = a.API.UpdateMeal(ctx, string(id), req)
	}
	if err != nil {
		a.Notices.Danger(MsgMealUpdateError)
		a.Logger.Warn("update meal failed", "id", id, "error", err)
		return nil, err
	}

	notice := a.Notices.Success(MsgMealUpdated)
	a.Chart.Invalidate()
	a.EditForm.Reset()
	a.Logger.Info("meal updated", "id", id)

	return &MutationOutput{MealID: id, Notice: notice, Meals: refreshMeals(ctx, a)}, nil
}

// DeleteMeal removes a meal. An edit form holding it is reset.
func DeleteMeal(ctx context.Context, a *app.App, id string) (*MutationOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("meal id is required")
	}
	if err := a.API.DeleteMeal(ctx, id); err != nil {
		a.Notices.Danger(MsgMealDeleteError)
		a.Logger.Warn("delete meal failed", "id", id, "error", err)
		return nil, err
	}

	notice := a.Notices.Success(MsgMealDeleted)
	a.Chart.Invalidate()
	if string(a.EditForm.MealID()) == id {
		a.EditForm.Reset()
	}
	a.Logger.Info("meal deleted", "id", id)

	return &MutationOutput{MealID: api.ID(id), Notice: notice, Meals: refreshMeals(ctx, a)}, nil
}

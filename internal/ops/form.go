package ops

import (
	"context"
	"strings"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
)

// FormFood is one selected food as reported by form operations.
type FormFood struct {
	ID       api.ID  `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	Quantity int     `json:"quantity"`
}

// FormOutput is the state of one meal form.
type FormOutput struct {
	Instance      mealform.Instance `json:"instance"`
	MealID        api.ID            `json:"meal_id,omitempty"`
	Title         string            `json:"title"`
	Date          string            `json:"date"`
	Foods         []FormFood        `json:"foods"`
	TotalCalories float64           `json:"total_calories"`
	Changed       *bool             `json:"changed,omitempty"`
}

// ShowForm reports the state of the form for inst. The new form reports
// the date its draft would be saved with.
func ShowForm(a *app.App, inst mealform.Instance) *FormOutput {
	f := a.Form(inst)
	out := &FormOutput{
		Instance:      inst,
		MealID:        f.MealID(),
		Title:         f.Title(),
		Date:          f.Date(),
		Foods:         make([]FormFood, 0, f.Table().Len()),
		TotalCalories: f.Table().TotalCalories(),
	}
	if inst == mealform.New {
		out.Date = a.Draft.Current().Date
	}
	for _, it := range f.Table().Items() {
		out.Foods = append(out.Foods, FormFood{
			ID:       it.Food.ID,
			Name:     it.Food.Name,
			Unit:     it.Food.Unit,
			Calories: it.Food.Calories,
			Quantity: it.Quantity,
		})
	}
	return out
}

func withChanged(out *FormOutput, changed bool) *FormOutput {
	out.Changed = &changed
	return out
}

// FoodInput addresses one food on one form.
type FoodInput struct {
	Instance mealform.Instance
	FoodID   string
}

func (in FoodInput) validate() (api.ID, error) {
	if _, err := mealform.ParseInstance(string(in.Instance)); err != nil {
		return "", err
	}
	id := strings.TrimSpace(in.FoodID)
	if id == "" {
		return "", errors.NewInvalidRequest("food id is required")
	}
	return api.ID(id), nil
}

// AddFood adds a catalog food to a form. Adding a food already on the form
// changes nothing and reports changed=false. A food missing from the
// catalog is UNKNOWN_FOOD and leaves the form untouched.
func AddFood(a *app.App, in FoodInput) (*FormOutput, error) {
	id, err := in.validate()
	if err != nil {
		return nil, err
	}
	if _, ok := a.Catalog.FindByID(id); !ok {
		return nil, errors.NewUnknownFood(string(id))
	}
	added := a.Form(in.Instance).Table().Add(id)
	return withChanged(ShowForm(a, in.Instance), added), nil
}

// RemoveFood removes a food from a form. Removing an absent food reports
// changed=false.
func RemoveFood(a *app.App, in FoodInput) (*FormOutput, error) {
	id, err := in.validate()
	if err != nil {
		return nil, err
	}
	removed := a.Form(in.Instance).Table().Remove(id)
	return withChanged(ShowForm(a, in.Instance), removed), nil
}

// SetQuantityInput sets the quantity of a selected food.
type SetQuantityInput struct {
	Instance mealform.Instance
	FoodID   string
	Quantity int
}

// SetQuantity writes a quantity into a form.
func SetQuantity(a *app.App, in SetQuantityInput) (*FormOutput, error) {
	id, err := FoodInput{Instance: in.Instance, FoodID: in.FoodID}.validate()
	if err != nil {
		return nil, err
	}
	if err := a.Form(in.Instance).Table().SetQuantity(id, in.Quantity); err != nil {
		return nil, err
	}
	return ShowForm(a, in.Instance), nil
}

// SetFieldsInput updates title and/or date. Nil fields are left as they are.
type SetFieldsInput struct {
	Instance mealform.Instance
	Title    *string
	Date     *string
}

// SetFields updates the title and date of a form. A date must parse.
func SetFields(a *app.App, in SetFieldsInput) (*FormOutput, error) {
	if _, err := mealform.ParseInstance(string(in.Instance)); err != nil {
		return nil, err
	}
	f := a.Form(in.Instance)
	title, date := f.Title(), f.Date()
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	if in.Date != nil {
		t, err := ParseFormDate(*in.Date, a.Location)
		if err != nil {
			return nil, err
		}
		date = FormatFormDate(t, a.Location)
	}
	f.SetFields(title, date)
	return ShowForm(a, in.Instance), nil
}

// ResetForm empties a form. For the new form this also erases the saved
// draft; a storage failure there is logged and the form is still reset.
func ResetForm(ctx context.Context, a *app.App, inst mealform.Instance) (*FormOutput, error) {
	if _, err := mealform.ParseInstance(string(inst)); err != nil {
		return nil, err
	}
	if inst == mealform.New {
		if err := a.Draft.Clear(ctx); err != nil {
			a.Logger.Warn("clearing draft failed", "error", err)
		}
	} else {
		a.EditForm.Reset()
	}
	return ShowForm(a, inst), nil
}

// FoodSearchOutput contains catalog matches for a query.
type FoodSearchOutput struct {
	Query string     `json:"query"`
	Foods []api.Food `json:"foods"`
}

// SearchFoods filters the catalog by name.
func SearchFoods(a *app.App, query string) *FoodSearchOutput {
	foods := a.Catalog.Search(query)
	if foods == nil {
		foods = []api.Food{}
	}
	return &FoodSearchOutput{Query: query, Foods: foods}
}

// SyncFoodsOutput contains the result of a catalog refresh.
type SyncFoodsOutput struct {
	Foods int `json:"foods"`
}

// SyncFoods refreshes the catalog from the remote API.
func SyncFoods(ctx context.Context, a *app.App) (*SyncFoodsOutput, error) {
	if err := a.Catalog.Refresh(ctx); err != nil {
		return nil, err
	}
	return &SyncFoodsOutput{Foods: a.Catalog.Len()}, nil
}

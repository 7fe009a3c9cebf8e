package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/api/apitest"
	"github.com/tftdiet/tft/internal/app/apptest"
	"github.com/tftdiet/tft/internal/draft"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/notify"
)

func lastRequest(t *testing.T, remote *apitest.Server, method, path string) apitest.Request {
	t.Helper()
	reqs := remote.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i]
		}
	}
	t.Fatalf("no %s %s request recorded", method, path)
	return apitest.Request{}
}

func TestCreateMeal_Success(t *testing.T) {
	ctx := context.Background()
	a, remote := apptest.New(t)

	a.NewForm.SetFields("Lunch", "2024-05-01T12:30")
	a.NewForm.Table().Add("f1")
	a.NewForm.Table().Add("f2")
	require.NoError(t, a.NewForm.Table().SetQuantity("f1", 150))
	a.Chart.Set(chartStub())

	out, err := CreateMeal(ctx, a)
	require.NoError(t, err)

	var body api.MealRequest
	require.NoError(t, json.Unmarshal(lastRequest(t, remote, http.MethodPost, "/meals").Body, &body))
	assert.Equal(t, "Lunch", body.Title)
	assert.Equal(t, "2024-05-01T12:30:00Z", body.Date)
	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f1", Quantity: 150}, {FoodID: "f2", Quantity: 0}}, body.Foods)

	assert.Equal(t, notify.Success, out.Notice.Kind)
	assert.Equal(t, MsgMealCreated, out.Notice.Message)
	require.Len(t, out.Meals, 1)
	assert.Equal(t, 19500.0, out.Meals[0].TotalCalories)

	_, cached := a.Chart.Get()
	assert.False(t, cached, "chart cache is invalidated")

	assert.Equal(t, 0, a.NewForm.Table().Len(), "draft is cleared")
	_, ok, err := a.Storage.GetItem(ctx, draft.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateMeal_RemoteFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	a, remote := apptest.New(t)
	remote.Fail("POST /meals", http.StatusInternalServerError)

	a.NewForm.SetFields("Lunch", "2024-05-01T12:30")
	a.NewForm.Table().Add("f1")

	_, err := CreateMeal(ctx, a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRemote))

	assert.Equal(t, 1, a.NewForm.Table().Len())
	pending := a.Notices.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, notify.Danger, pending[0].Kind)
	assert.Equal(t, MsgMealCreateError, pending[0].Message)

	raw, ok, err := a.Storage.GetItem(ctx, draft.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"f1"`)

	// Retry succeeds once the remote recovers.
	remote.Fail("POST /meals", 0)
	_, err = CreateMeal(ctx, a)
	require.NoError(t, err)
	assert.Len(t, remote.Meals(), 1)
}

func TestCreateMeal_Validation(t *testing.T) {
	a, remote := apptest.New(t)

	_, err := CreateMeal(context.Background(), a)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	a.NewForm.SetFields("Lunch", "yesterday")
	_, err = CreateMeal(context.Background(), a)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	assert.Empty(t, remote.Meals())
}

func TestCreateMeal_EmptyDateMeansNow(t *testing.T) {
	a, remote := apptest.New(t)
	a.NewForm.SetFields("Snack", "")

	_, err := CreateMeal(context.Background(), a)
	require.NoError(t, err)

	meals := remote.Meals()
	require.Len(t, meals, 1)
	assert.True(t, meals[0].Date.Equal(apptest.Now))
}

func TestEditThenUpdateMeal(t *testing.T) {
	ctx := context.Background()
	a, remote := apptest.New(t)
	id := remote.AddMeal(api.Meal{
		Title: "Breakfast",
		Date:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Foods: []api.MealFood{{ID: "f2", Name: "Egg", Unit: "unit", Calories: 70, Quantity: 2}},
	})

	edit, err := EditMeal(ctx, a, string(id))
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", edit.Title)
	assert.Equal(t, "2024-05-01T08:00", edit.Date)
	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f2", Quantity: 2}}, edit.Foods)

	a.EditForm.Table().Add("f1")
	require.NoError(t, a.EditForm.Table().SetQuantity("f1", 100))
	a.EditForm.SetFields("Brunch", a.EditForm.Date())

	out, err := UpdateMeal(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, id, out.MealID)
	assert.Equal(t, MsgMealUpdated, out.Notice.Message)
	assert.Equal(t, api.ID(""), a.EditForm.MealID(), "edit form is reset")

	var body api.MealRequest
	require.NoError(t, json.Unmarshal(lastRequest(t, remote, http.MethodPut, "/meals/"+string(id)).Body, &body))
	assert.Equal(t, "Brunch", body.Title)
	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f2", Quantity: 2}, {FoodID: "f1", Quantity: 100}}, body.Foods)

	_, ok, err := a.Storage.GetItem(ctx, draft.StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, a.NewForm.Table().Len(), "edit changes never touch the new form")
}

func TestEditMeal_ZoneConversion(t *testing.T) {
	a, remote := apptest.New(t)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	a.Location = loc

	id := remote.AddMeal(api.Meal{Title: "Dinner", Date: time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)})
	out, err := EditMeal(context.Background(), a, string(id))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T20:00", out.Date)
}

func TestEditMeal_NotFound(t *testing.T) {
	a, _ := apptest.New(t)

	_, err := EditMeal(context.Background(), a, "404")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	require.Len(t, a.Notices.Pending(), 1)
	assert.Equal(t, MsgMealLoadError, a.Notices.Pending()[0].Message)
}

func TestUpdateMeal_NothingLoaded(t *testing.T) {
	a, _ := apptest.New(t)
	_, err := UpdateMeal(context.Background(), a)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDeleteMeal(t *testing.T) {
	ctx := context.Background()
	a, remote := apptest.New(t)
	id := remote.AddMeal(api.Meal{Title: "Old", Date: apptest.Now})
	keep := remote.AddMeal(api.Meal{Title: "Keep", Date: apptest.Now.Add(-time.Hour)})

	_, err := EditMeal(ctx, a, string(id))
	require.NoError(t, err)

	out, err := DeleteMeal(ctx, a, string(id))
	require.NoError(t, err)
	assert.Equal(t, MsgMealDeleted, out.Notice.Message)
	require.Len(t, out.Meals, 1)
	assert.Equal(t, keep, out.Meals[0].ID)
	assert.Equal(t, api.ID(""), a.EditForm.MealID())

	_, err = DeleteMeal(ctx, a, string(id))
	assert.True(t, errors.Is(err, errors.ErrRemote))
}

func TestListMeals_SortedNewestFirst(t *testing.T) {
	a, remote := apptest.New(t)
	remote.AddMeal(api.Meal{Title: "Early", Date: time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)})
	remote.AddMeal(api.Meal{Title: "Late", Date: time.Date(2024, 5, 1, 19, 5, 0, 0, time.UTC), Foods: []api.MealFood{
		{ID: "f1", Calories: 130, Quantity: 2},
		{ID: "f2", Calories: 70, Quantity: 1},
	}})

	out, err := ListMeals(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, out.Meals, 2)
	assert.Equal(t, "Late", out.Meals[0].Title)
	assert.Equal(t, "01/05/2024 19:05", out.Meals[0].DisplayDate)
	assert.Equal(t, 330.0, out.Meals[0].TotalCalories)
	assert.Equal(t, "Early", out.Meals[1].Title)
}

func TestParseFormDate(t *testing.T) {
	got, err := ParseFormDate("2024-05-01T12:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), got)

	got, err = ParseFormDate("2024-05-01T15:30:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Hour())

	_, err = ParseFormDate("01/05/2024", time.UTC)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestSummaries_EmptyListOnReloadFailure(t *testing.T) {
	a, remote := apptest.New(t)
	a.NewForm.SetFields("Lunch", "2024-05-01T12:30")
	remote.Fail("GET /meals", http.StatusBadGateway)

	out, err := CreateMeal(context.Background(), a)
	require.NoError(t, err)
	assert.NotNil(t, out.Meals)
	assert.Empty(t, out.Meals)
	assert.Equal(t, mealform.New, a.NewForm.Instance())
}

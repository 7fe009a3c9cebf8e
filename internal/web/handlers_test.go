package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/api/apitest"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/app/apptest"
	"github.com/tftdiet/tft/internal/draft"
	"github.com/tftdiet/tft/internal/notify"
	"github.com/tftdiet/tft/internal/ops"
)

func setupTest(t *testing.T) (http.Handler, *app.App, *apitest.Server) {
	t.Helper()
	a, remote := apptest.New(t)
	h, err := NewHandler(a, "test")
	require.NoError(t, err)
	return h, a, remote
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, target string, form url.Values, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func storedDraft(t *testing.T, a *app.App) draft.MealDraft {
	t.Helper()
	raw, ok, err := a.Storage.GetItem(t.Context(), draft.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var d draft.MealDraft
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func TestRoot_Redirects(t *testing.T) {
	h, _, _ := setupTest(t)
	rec := get(t, h, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/meals", rec.Header().Get("Location"))
}

func TestMealsPage(t *testing.T) {
	h, _, remote := setupTest(t)
	remote.AddMeal(api.Meal{Title: "Breakfast", Date: apptest.Now.Add(-4 * time.Hour), Foods: []api.MealFood{
		{ID: "f2", Name: "Egg", Unit: "unit", Calories: 70, Quantity: 2},
	}})

	rec := get(t, h, "/meals")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Breakfast")
	assert.Contains(t, body, "140 kcal")
	assert.Contains(t, body, `id="foods-data-container"`)
	assert.Contains(t, body, `id="selected-foods-table-body"`)
	assert.Contains(t, body, `value="2024-05-01T12:00"`)
	assert.Contains(t, body, "<svg")

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestMealsPage_HTMXRendersContentOnly(t *testing.T) {
	h, _, _ := setupTest(t)
	rec := get(t, h, "/meals", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, rec.Body.String(), "meals-table-body")
}

func TestMealsPage_RemoteDown(t *testing.T) {
	h, _, remote := setupTest(t)
	remote.Fail("GET /meals", http.StatusInternalServerError)
	remote.Fail("GET /stats/rates", http.StatusInternalServerError)

	rec := get(t, h, "/meals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not load meals")
	assert.Contains(t, rec.Body.String(), "Chart unavailable")
}

func TestAddFood_UpdatesTableAndDraft(t *testing.T) {
	h, a, _ := setupTest(t)

	rec := post(t, h, "/forms/new/foods", url.Values{"food_id": {"f1"}, "title": {"Lunch"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/meals#new-meal-form", rec.Header().Get("Location"))

	assert.True(t, a.NewForm.Table().Contains("f1"))
	d := storedDraft(t, a)
	assert.Equal(t, "Lunch", d.Title)
	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f1"}}, d.Foods)

	body := get(t, h, "/meals").Body.String()
	assert.Contains(t, body, `name="foods[f1]" value="f1"`)
	assert.Contains(t, body, `name="quantity[f1]" value="0"`)
	assert.Contains(t, body, "Rice (g)")
}

func TestAddFood_UnknownIsRejected(t *testing.T) {
	h, a, _ := setupTest(t)
	rec := post(t, h, "/forms/new/foods", url.Values{"food_id": {"unknown-id"}}, "Accept", "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, a.NewForm.Table().Len())
}

func TestInput_WritesThrough(t *testing.T) {
	h, a, _ := setupTest(t)
	require.True(t, a.NewForm.Table().Add("f1"))

	rec := post(t, h, "/forms/new/input", url.Values{
		"title":        {"Dinner"},
		"date":         {"2024-05-01T19:00"},
		"quantity[f1]": {"150"},
	}, "HX-Request", "true")
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f1", Quantity: 150}}, a.NewForm.Entries())
	d := storedDraft(t, a)
	assert.Equal(t, "Dinner", d.Title)
	assert.Equal(t, "2024-05-01T19:00", d.Date)
	assert.Equal(t, 150, d.Foods[0].Quantity)
}

func TestSearch_Fragment(t *testing.T) {
	h, _, _ := setupTest(t)

	rec := get(t, h, "/forms/new/search?q=ri", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rice (g) - 130 kcal")
	assert.NotContains(t, rec.Body.String(), "Egg")

	rec = get(t, h, "/forms/edit/search?q=xyz", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<option disabled>No food found</option>")
}

func TestSearchThenConfirm_NoScript(t *testing.T) {
	h, a, _ := setupTest(t)

	rec := post(t, h, "/forms/new/search", url.Values{"q": {"egg"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, get(t, h, "/meals").Body.String(), "Egg (unit) - 70 kcal")

	rec = post(t, h, "/forms/new/foods", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, a.NewForm.Table().Contains("f2"))
	assert.False(t, a.Autocomplete("new").State().Visible)
}

func TestRemoveFood(t *testing.T) {
	h, a, _ := setupTest(t)
	require.True(t, a.NewForm.Table().Add("f1"))

	rec := post(t, h, "/forms/new/foods/f1/remove", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, a.NewForm.Table().Len())
	assert.Empty(t, storedDraft(t, a).Foods)
}

func TestUnknownFormInstance(t *testing.T) {
	h, _, _ := setupTest(t)
	rec := get(t, h, "/forms/other", "Accept", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REQUEST", body["error"]["code"])
}

func TestFormJSON(t *testing.T) {
	h, a, _ := setupTest(t)
	require.True(t, a.EditForm.Table().Add("f2"))

	rec := get(t, h, "/forms/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	var out ops.FormOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "edit", string(out.Instance))
	require.Len(t, out.Foods, 1)
	assert.Equal(t, "Egg", out.Foods[0].Name)
}

func TestCreateMeal_Flow(t *testing.T) {
	h, a, remote := setupTest(t)
	require.True(t, a.NewForm.Table().Add("f1"))

	rec := post(t, h, "/meals", url.Values{
		"title":        {"Lunch"},
		"date":         {"2024-05-01T12:30"},
		"foods[f1]":    {"f1"},
		"quantity[f1]": {"200"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/meals", rec.Header().Get("Location"))

	meals := remote.Meals()
	require.Len(t, meals, 1)
	assert.Equal(t, "Lunch", meals[0].Title)
	assert.Equal(t, 200, meals[0].Foods[0].Quantity)
	assert.Equal(t, 0, a.NewForm.Table().Len())

	page := get(t, h, "/meals").Body.String()
	assert.Contains(t, page, ops.MsgMealCreated)
	assert.Contains(t, page, "26000 kcal")
}

func TestCreateMeal_RemoteFailureKeepsForm(t *testing.T) {
	h, a, remote := setupTest(t)
	remote.Fail("POST /meals", http.StatusInternalServerError)
	require.True(t, a.NewForm.Table().Add("f1"))

	rec := post(t, h, "/meals", url.Values{"title": {"Lunch"}, "date": {"2024-05-01T12:30"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, a.NewForm.Table().Len())
	assert.Equal(t, "Lunch", storedDraft(t, a).Title)

	pending := a.Notices.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, notify.Danger, pending[0].Kind)
}

func TestCreateMeal_MissingTitle(t *testing.T) {
	h, _, remote := setupTest(t)
	rec := post(t, h, "/meals", url.Values{"title": {" "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, remote.Meals())
}

func TestEditAndUpdateMeal(t *testing.T) {
	h, a, remote := setupTest(t)
	id := string(remote.AddMeal(api.Meal{Title: "Breakfast", Date: apptest.Now, Foods: []api.MealFood{
		{ID: "f2", Name: "Egg", Unit: "unit", Calories: 70, Quantity: 2},
	}}))

	rec := get(t, h, "/meals/"+id+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="edit-meal-form"`)
	assert.Contains(t, body, `id="edit-selected-foods-table-body"`)
	assert.Contains(t, body, `value="Breakfast"`)
	assert.Contains(t, body, `name="quantity[f2]" value="2"`)

	// Edits made between page loads survive a plain reload.
	require.True(t, a.EditForm.Table().Add("f1"))
	assert.Contains(t, get(t, h, "/meals/"+id+"/edit").Body.String(), "Rice (g)")
	assert.NotContains(t, get(t, h, "/meals/"+id+"/edit?reload=1").Body.String(), "Rice (g)")

	rec = post(t, h, "/meals/"+id, url.Values{"title": {"Brunch"}, "date": {"2024-05-01T10:00"}, "quantity[f2]": {"3"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/meals", rec.Header().Get("Location"))

	meals := remote.Meals()
	require.Len(t, meals, 1)
	assert.Equal(t, "Brunch", meals[0].Title)
	assert.Equal(t, 3, meals[0].Foods[0].Quantity)
	assert.Equal(t, api.ID(""), a.EditForm.MealID())
}

func TestUpdateMeal_NotLoaded(t *testing.T) {
	h, _, remote := setupTest(t)
	id := string(remote.AddMeal(api.Meal{Title: "Breakfast", Date: apptest.Now}))

	rec := post(t, h, "/meals/"+id, url.Values{"title": {"Brunch"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditMeal_NotFound(t *testing.T) {
	h, _, _ := setupTest(t)
	rec := get(t, h, "/meals/999/edit")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "meal not found")
}

func TestDeleteMeal(t *testing.T) {
	h, _, remote := setupTest(t)
	id := string(remote.AddMeal(api.Meal{Title: "Old", Date: apptest.Now}))

	rec := post(t, h, "/meals/"+id+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, remote.Meals())

	req := httptest.NewRequest(http.MethodDelete, "/meals/"+id, nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"REMOTE"`)
}

func TestResetNewForm(t *testing.T) {
	h, a, _ := setupTest(t)
	require.True(t, a.NewForm.Table().Add("f1"))

	rec := post(t, h, "/forms/new/reset", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, a.NewForm.Table().Len())
	_, ok, err := a.Storage.GetItem(t.Context(), draft.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChartJSON(t *testing.T) {
	h, _, remote := setupTest(t)
	remote.SetHistory(api.HistoryItem{Value: 1800, Weekday: 2})

	rec := get(t, h, "/chart.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Labels   []string   `json:"labels"`
		Calories []*float64 `json:"calories"`
		Limit    float64    `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Labels, 7)
	assert.Equal(t, 2200.0, body.Limit)
	require.NotNil(t, body.Calories[6])
	assert.Equal(t, 1800.0, *body.Calories[6])
}

func TestProfile(t *testing.T) {
	h, _, remote := setupTest(t)

	rec := get(t, h, "/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sedentary")

	rec = post(t, h, "/profile", url.Values{
		"age": {"30"}, "gender": {"female"}, "weight": {"62.5"}, "height": {"168"},
		"activity_level_id": {"1"}, "goal_id": {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	info := remote.PersonalInfo()
	require.NotNil(t, info)
	assert.Equal(t, 62.5, info.Weight)

	page := get(t, h, "/profile").Body.String()
	assert.Contains(t, page, ops.MsgProfileSaved)
	assert.Contains(t, page, `value="168"`)

	rec = post(t, h, "/profile", url.Values{"age": {"old"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReport(t *testing.T) {
	h, _, remote := setupTest(t)
	remote.AddMeal(api.Meal{Title: "Lunch", Date: apptest.Now, Foods: []api.MealFood{
		{ID: "f1", Calories: 130, Quantity: 5},
	}})

	rec := get(t, h, "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Daily report for Wednesday, 01 May 2024</h1>")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "650 kcal")
}

func TestDismissNotice(t *testing.T) {
	h, a, _ := setupTest(t)
	n := a.Notices.Success("done")

	rec := post(t, h, "/notices/"+n.ID+"/dismiss", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, a.Notices.Pending())
}

func TestStaticAssets(t *testing.T) {
	h, _, _ := setupTest(t)
	rec := get(t, h, "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI. Each handler runs
// as one event under the app lock.
type Handlers struct {
	app      *app.App
	renderer *Renderer
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Notices: h.app.Notices.Pending(),
	}
}

func (h *Handlers) formView(inst mealform.Instance) FormView {
	f := h.app.Form(inst)
	v := FormView{
		Instance:     inst,
		Action:       "/meals",
		MealID:       f.MealID(),
		Title:        f.Title(),
		Date:         f.Date(),
		Hidden:       f.Table().HiddenFields(),
		Rows:         f.Table().Rows(),
		Total:        f.Table().TotalCalories(),
		Search:       h.app.Autocomplete(inst).State(),
		SearchAction: "/forms/" + string(inst) + "/search",
	}
	if inst == mealform.New {
		v.Date = h.app.Draft.Current().Date
	} else {
		v.Action = "/meals/" + string(f.MealID())
	}
	return v
}

// formReturn is where a form action lands after a full-page post.
func (h *Handlers) formReturn(inst mealform.Instance) string {
	if inst == mealform.Edit {
		if id := h.app.EditForm.MealID(); id != "" {
			return "/meals/" + url.PathEscape(string(id)) + "/edit"
		}
	}
	return "/meals#" + inst.FormID()
}

// finish ends a mutating request with a redirect to target. htmx callers get
// HX-Redirect instead of a 303.
func (h *Handlers) finish(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleMeals handles GET /meals: meal list, new-meal form and chart.
func (h *Handlers) HandleMeals(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	data := MealsPageData{
		PageData:  h.page("Meals", "meals"),
		Form:      h.formView(mealform.New),
		FoodCount: h.app.Catalog.Len(),
	}

	meals, err := ops.ListMeals(r.Context(), h.app)
	if err != nil {
		h.app.Logger.Warn("loading meals failed", "error", err)
		data.MealsErr = errors.As(err).Message
	} else {
		data.Meals = meals.Meals
	}

	series, err := ops.Chart(r.Context(), h.app)
	if err != nil {
		h.app.Logger.Warn("loading chart failed", "error", err)
		data.ChartErr = errors.As(err).Message
	} else {
		data.Chart = newChartView(series)
	}

	h.renderer.renderPage(w, r, "meals", data)
}

// HandleCreate handles POST /meals: submit the new-meal form.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	if !h.applyForm(w, r, mealform.New) {
		return
	}
	if _, err := ops.CreateMeal(r.Context(), h.app); err != nil && errors.Is(err, errors.ErrInvalidRequest) {
		h.renderer.renderError(w, r, err)
		return
	}
	// Remote failures are reported through the notice list.
	h.finish(w, r, "/meals")
}

// HandleEdit handles GET /meals/{id}/edit. The meal is fetched into the edit
// form unless the form already holds it; reload=1 forces a refetch.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	id := r.PathValue("id")
	if string(h.app.EditForm.MealID()) != id || parseBoolParam(r, "reload") {
		if _, err := ops.EditMeal(r.Context(), h.app, id); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	}

	h.renderer.renderPage(w, r, "edit", EditPageData{
		PageData: h.page("Edit meal", "meals"),
		Form:     h.formView(mealform.Edit),
	})
}

// HandleUpdate handles POST /meals/{id}: submit the edit form.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	id := r.PathValue("id")
	if string(h.app.EditForm.MealID()) != id {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("meal "+id+" is not loaded for editing"))
		return
	}
	if !h.applyForm(w, r, mealform.Edit) {
		return
	}
	if _, err := ops.UpdateMeal(r.Context(), h.app); err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			h.renderer.renderError(w, r, err)
			return
		}
		h.finish(w, r, h.formReturn(mealform.Edit))
		return
	}
	h.finish(w, r, "/meals")
}

// HandleDelete handles POST /meals/{id}/delete and DELETE /meals/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	_, err := ops.DeleteMeal(r.Context(), h.app, r.PathValue("id"))
	if r.Method == http.MethodDelete {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.finish(w, r, "/meals")
}

// instance parses the {form} path segment.
func (h *Handlers) instance(w http.ResponseWriter, r *http.Request) (mealform.Instance, bool) {
	inst, err := mealform.ParseInstance(r.PathValue("form"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return "", false
	}
	return inst, true
}

// applyForm writes the submitted title, date and quantities into the form
// of inst, as one input event.
func (h *Handlers) applyForm(w http.ResponseWriter, r *http.Request, inst mealform.Instance) bool {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form body"))
		return false
	}
	if len(r.PostForm) > 0 {
		h.app.Form(inst).Input(r.PostForm)
	}
	return true
}

// HandleInput handles POST /forms/{form}/input: write-through of one form
// input event. Answers 204.
func (h *Handlers) HandleInput(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok || !h.applyForm(w, r, inst) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSearch handles GET and POST /forms/{form}/search: autocomplete
// query. htmx callers get the result list fragment.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodPost && !h.applyForm(w, r, inst) {
		return
	}
	h.app.Autocomplete(inst).Input(r.FormValue("q"))

	if isHTMX(r) {
		h.renderer.renderBlock(w, http.StatusOK, pageFor(inst), "autocomplete-results", h.formView(inst))
		return
	}
	h.finish(w, r, h.formReturn(inst))
}

// HandleAddFood handles POST /forms/{form}/foods: confirm the autocomplete
// selection. A food_id field selects that result first.
func (h *Handlers) HandleAddFood(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok || !h.applyForm(w, r, inst) {
		return
	}

	widget := h.app.Autocomplete(inst)
	if id := strings.TrimSpace(r.PostForm.Get("food_id")); id != "" {
		if err := widget.Select(api.ID(id)); err != nil {
			// Not among the visible results; add it directly.
			if _, err := ops.AddFood(h.app, ops.FoodInput{Instance: inst, FoodID: id}); err != nil {
				h.renderer.renderError(w, r, err)
				return
			}
			h.finish(w, r, h.formReturn(inst))
			return
		}
	}
	widget.Confirm()
	h.finish(w, r, h.formReturn(inst))
}

// HandleRemoveFood handles POST /forms/{form}/foods/{food}/remove.
func (h *Handlers) HandleRemoveFood(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok || !h.applyForm(w, r, inst) {
		return
	}
	if _, err := ops.RemoveFood(h.app, ops.FoodInput{Instance: inst, FoodID: r.PathValue("food")}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, h.formReturn(inst))
}

// HandleReset handles POST /forms/{form}/reset. Resetting the new form
// erases the draft.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	target := h.formReturn(inst)
	if inst == mealform.Edit {
		target = "/meals"
	}
	if _, err := ops.ResetForm(r.Context(), h.app, inst); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, target)
}

// HandleForm handles GET /forms/{form}: the form state as JSON.
func (h *Handlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	renderJSON(w, http.StatusOK, ops.ShowForm(h.app, inst))
}

// HandleChart handles GET /chart.json.
func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	series, err := ops.Chart(r.Context(), h.app)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, series)
}

// HandleProfile handles GET /profile.
func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	profile, err := ops.LoadProfile(r.Context(), h.app)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	data := ProfilePageData{
		PageData: h.page("Personal information", "profile"),
		Profile:  profile,
		Genders:  ops.Genders,
	}
	if profile.Info != nil {
		data.Info = *profile.Info
	}
	h.renderer.renderPage(w, r, "profile", data)
}

// HandleSaveProfile handles POST /profile.
func (h *Handlers) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form body"))
		return
	}
	info, err := parsePersonalInfo(r.PostForm)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	// Failures surface as a danger notice on the next page.
	_, _ = ops.SaveProfile(r.Context(), h.app, info)
	h.finish(w, r, "/profile")
}

// HandleReport handles GET /report.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.app.Lock()
	defer h.app.Unlock()

	report, err := ops.Report(r.Context(), h.app)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "report", ReportPageData{
		PageData:     h.page("Daily report", "report"),
		Report:       report,
		RenderedHTML: h.renderer.renderMarkdown(report.Markdown),
	})
}

// HandleDismiss handles POST /notices/{id}/dismiss.
func (h *Handlers) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	h.app.Notices.Dismiss(r.PathValue("id"))
	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	back := r.Referer()
	if back == "" {
		back = "/meals"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func pageFor(inst mealform.Instance) string {
	if inst == mealform.Edit {
		return "edit"
	}
	return "meals"
}

// parsePersonalInfo reads the personal-info form fields.
func parsePersonalInfo(v url.Values) (api.PersonalInfo, error) {
	var info api.PersonalInfo
	var err error
	ints := []struct {
		name string
		dst  *int
	}{
		{"age", &info.Age},
		{"height", &info.Height},
		{"activity_level_id", &info.ActivityLevelID},
		{"goal_id", &info.GoalID},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(strings.TrimSpace(v.Get(f.name))); err != nil {
			return info, errors.NewInvalidRequest(f.name + " must be an integer")
		}
	}
	if info.Weight, err = strconv.ParseFloat(strings.TrimSpace(v.Get("weight")), 64); err != nil {
		return info, errors.NewInvalidRequest("weight must be a number")
	}
	info.Gender = v.Get("gender")
	return info, nil
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	val := r.URL.Query().Get(name)
	return val == "true" || val == "1"
}

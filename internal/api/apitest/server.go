// Package apitest provides an in-memory fake of the remote diet-tracking API
// for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tftdiet/tft/internal/api"
)

// Rice and Egg are the default catalog.
var (
	Rice = api.Food{ID: "f1", Name: "Rice", Unit: "g", Calories: 130}
	Egg  = api.Food{ID: "f2", Name: "Egg", Unit: "unit", Calories: 70}
)

// Request records one call received by the fake.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Server is a fake remote API backed by in-memory state.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	foods     []api.Food
	meals     map[string]api.Meal
	nextID    int
	levels    []api.ActivityLevel
	goals     []api.Goal
	info      *api.PersonalInfo
	rates     api.Rates
	history   []api.HistoryItem
	failures  map[string]int
	requests  []Request
	foodCalls int
}

// New starts a fake with the default catalog. It is closed on test cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		foods:    []api.Food{Rice, Egg},
		meals:    make(map[string]api.Meal),
		nextID:   1,
		levels:   []api.ActivityLevel{{ID: 1, Name: "Sedentary", Description: "little or no exercise"}},
		goals:    []api.Goal{{ID: 1, Name: "Maintain"}},
		rates:    api.Rates{BMR: 1600, TDEE: 2200},
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /foods", s.handleFoods)
	mux.HandleFunc("GET /meals", s.handleMeals)
	mux.HandleFunc("GET /meals/{id}", s.handleMeal)
	mux.HandleFunc("POST /meals", s.handleCreate)
	mux.HandleFunc("PUT /meals/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /meals/{id}", s.handleDelete)
	mux.HandleFunc("GET /activity-levels", func(w http.ResponseWriter, r *http.Request) { s.writeJSON(w, s.levels) })
	mux.HandleFunc("GET /goals", func(w http.ResponseWriter, r *http.Request) { s.writeJSON(w, s.goals) })
	mux.HandleFunc("GET /personal-info", s.handleGetInfo)
	mux.HandleFunc("POST /personal-info", s.handleSaveInfo)
	mux.HandleFunc("GET /stats/rates", func(w http.ResponseWriter, r *http.Request) { s.writeJSON(w, s.rates) })
	mux.HandleFunc("GET /stats/history", func(w http.ResponseWriter, r *http.Request) { s.writeJSON(w, s.history) })

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// SetFoods replaces the catalog.
func (s *Server) SetFoods(foods ...api.Food) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foods = foods
}

// SetHistory replaces the calorie history.
func (s *Server) SetHistory(items ...api.HistoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = items
}

// SetRates replaces BMR/TDEE.
func (s *Server) SetRates(r api.Rates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = r
}

// AddMeal stores a meal directly and returns its id.
func (s *Server) AddMeal(m api.Meal) api.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = api.ID(strconv.Itoa(s.nextID))
		s.nextID++
	}
	s.meals[string(m.ID)] = m
	return m.ID
}

// Meals returns the stored meals ordered by id.
func (s *Server) Meals() []api.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedMeals()
}

// PersonalInfo returns the last saved profile.
func (s *Server) PersonalInfo() *api.PersonalInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Fail makes route ("METHOD /pattern", e.g. "POST /meals") answer with status.
// A status of 0 clears the failure.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FoodCalls counts GET /foods requests.
func (s *Server) FoodCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.foodCalls
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		status := s.failureFor(r)
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, "forced failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// failureFor matches exact paths first, then "/meals/{id}" style patterns.
func (s *Server) failureFor(r *http.Request) int {
	if status, ok := s.failures[r.Method+" "+r.URL.Path]; ok {
		return status
	}
	if len(r.URL.Path) > len("/meals/") && r.URL.Path[:len("/meals/")] == "/meals/" {
		return s.failures[r.Method+" /meals/{id}"]
	}
	return 0
}

func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.foodCalls++
	foods := append([]api.Food(nil), s.foods...)
	s.mu.Unlock()
	s.writeJSON(w, foods)
}

func (s *Server) handleMeals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	meals := s.sortedMeals()
	s.mu.Unlock()
	s.writeJSON(w, meals)
}

func (s *Server) handleMeal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	meal, ok := s.meals[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, meal)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	meal, ok := s.decodeMeal(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	meal.ID = api.ID(strconv.Itoa(s.nextID))
	s.nextID++
	s.meals[string(meal.ID)] = meal
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	s.writeJSON(w, meal)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, exists := s.meals[id]
	s.mu.Unlock()
	if !exists {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	meal, ok := s.decodeMeal(w, r)
	if !ok {
		return
	}
	meal.ID = api.ID(id)
	s.mu.Lock()
	s.meals[id] = meal
	s.mu.Unlock()
	s.writeJSON(w, meal)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, exists := s.meals[id]
	delete(s.meals, id)
	s.mu.Unlock()
	if !exists {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := s.info
	s.mu.Unlock()
	if info == nil {
		http.Error(w, "no personal info", http.StatusNotFound)
		return
	}
	s.writeJSON(w, info)
}

func (s *Server) handleSaveInfo(w http.ResponseWriter, r *http.Request) {
	var info api.PersonalInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()
	s.writeJSON(w, info)
}

// decodeMeal turns a request body into a stored meal, resolving foods
// against the catalog the way the real backend does.
func (s *Server) decodeMeal(w http.ResponseWriter, r *http.Request) (api.Meal, bool) {
	var req api.MealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return api.Meal{}, false
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return api.Meal{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	meal := api.Meal{Title: req.Title, Date: date}
	for _, entry := range req.Foods {
		for _, f := range s.foods {
			if f.ID == entry.FoodID {
				meal.Foods = append(meal.Foods, api.MealFood{
					ID: f.ID, Name: f.Name, Unit: f.Unit, Calories: f.Calories, Quantity: entry.Quantity,
				})
			}
		}
	}
	return meal, true
}

func (s *Server) sortedMeals() []api.Meal {
	meals := make([]api.Meal, 0, len(s.meals))
	for _, m := range s.meals {
		meals = append(meals, m)
	}
	sort.Slice(meals, func(i, j int) bool {
		a, _ := strconv.Atoi(string(meals[i].ID))
		b, _ := strconv.Atoi(string(meals[j].ID))
		return a < b
	})
	return meals
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	_ = json.NewEncoder(w).Encode(v)
}

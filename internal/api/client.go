package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tftdiet/tft/internal/errors"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Client talks to the remote diet-tracking REST API.
type Client struct {
	baseURL string
	client  *http.Client
	loc     *time.Location
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLocation sets the zone used for meal dates the remote sends without
// an offset. The default is time.Local.
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewClient creates a client for baseURL. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Foods fetches the full food catalog.
func (c *Client) Foods(ctx context.Context) ([]Food, error) {
	var foods []Food
	if err := c.do(ctx, http.MethodGet, "/foods", nil, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// Meals fetches every stored meal.
func (c *Client) Meals(ctx context.Context) ([]Meal, error) {
	var wire []wireMeal
	if err := c.do(ctx, http.MethodGet, "/meals", nil, &wire); err != nil {
		return nil, err
	}
	meals := make([]Meal, 0, len(wire))
	for _, w := range wire {
		m, err := w.meal(c.loc)
		if err != nil {
			return nil, errors.NewRemote("GET /meals", http.StatusOK, err)
		}
		meals = append(meals, m)
	}
	return meals, nil
}

// Meal fetches one meal. A 404 from the remote maps to NOT_FOUND.
func (c *Client) Meal(ctx context.Context, id string) (*Meal, error) {
	path := "/meals/" + url.PathEscape(id)
	var wire wireMeal
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		if remoteStatus(err) == http.StatusNotFound {
			return nil, errors.NewNotFound("meal", id)
		}
		return nil, err
	}
	meal, err := wire.meal(c.loc)
	if err != nil {
		return nil, errors.NewRemote("GET "+path, http.StatusOK, err)
	}
	return &meal, nil
}

// CreateMeal posts a new meal.
func (c *Client) CreateMeal(ctx context.Context, req MealRequest) error {
	return c.do(ctx, http.MethodPost, "/meals", req, nil)
}

// UpdateMeal replaces an existing meal.
func (c *Client) UpdateMeal(ctx context.Context, id string, req MealRequest) error {
	return c.do(ctx, http.MethodPut, "/meals/"+url.PathEscape(id), req, nil)
}

// DeleteMeal removes a meal.
func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/meals/"+url.PathEscape(id), nil, nil)
}

// ActivityLevels lists the activity level options.
func (c *Client) ActivityLevels(ctx context.Context) ([]ActivityLevel, error) {
	var levels []ActivityLevel
	if err := c.do(ctx, http.MethodGet, "/activity-levels", nil, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// Goals lists the goal options.
func (c *Client) Goals(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if err := c.do(ctx, http.MethodGet, "/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// PersonalInfo fetches the saved profile. It returns nil, nil when the
// remote has none yet (any non-2xx answer).
func (c *Client) PersonalInfo(ctx context.Context) (*PersonalInfo, error) {
	var info PersonalInfo
	if err := c.do(ctx, http.MethodGet, "/personal-info", nil, &info); err != nil {
		if remoteStatus(err) != 0 {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// SavePersonalInfo stores the profile.
func (c *Client) SavePersonalInfo(ctx context.Context, info PersonalInfo) error {
	return c.do(ctx, http.MethodPost, "/personal-info", info, nil)
}

// Rates fetches BMR and TDEE.
func (c *Client) Rates(ctx context.Context) (*Rates, error) {
	var rates Rates
	if err := c.do(ctx, http.MethodGet, "/stats/rates", nil, &rates); err != nil {
		return nil, err
	}
	return &rates, nil
}

// History fetches consumed calories per weekday.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	var items []HistoryItem
	if err := c.do(ctx, http.MethodGet, "/stats/history", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// do issues one JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal(fmt.Errorf("failed to marshal %s body: %w", op, err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create %s request: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewRemote(op, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewRemote(op, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var cause error
		if msg := strings.TrimSpace(string(data)); msg != "" {
			if len(msg) > maxErrorBody {
				msg = msg[:maxErrorBody]
			}
			cause = fmt.Errorf("%s", msg)
		}
		return errors.NewRemote(op, resp.StatusCode, cause)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewRemote(op, resp.StatusCode, fmt.Errorf("failed to parse response JSON: %w", err))
	}
	return nil
}

// remoteStatus extracts the HTTP status from a REMOTE error, or 0.
func remoteStatus(err error) int {
	if !errors.Is(err, errors.ErrRemote) {
		return 0
	}
	status, _ := errors.As(err).Details["remote_status"].(int)
	return status
}

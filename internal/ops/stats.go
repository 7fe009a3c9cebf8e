package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/chart"
)

// Chart returns the seven-day calorie series, fetching it when the cache is
// empty.
func Chart(ctx context.Context, a *app.App) (*chart.Series, error) {
	if s, ok := a.Chart.Get(); ok {
		return &s, nil
	}

	rates, err := a.API.Rates(ctx)
	if err != nil {
		return nil, err
	}
	history, err := a.API.History(ctx)
	if err != nil {
		return nil, err
	}

	s := chart.Build(history, *rates, a.Now())
	a.Chart.Set(s)
	return &s, nil
}

// ReportOutput is the daily summary.
type ReportOutput struct {
	Day       string        `json:"day"`
	Meals     []MealSummary `json:"meals"`
	Consumed  float64       `json:"consumed"`
	Limit     float64       `json:"limit"`
	Remaining float64       `json:"remaining"`
	Markdown  string        `json:"markdown"`
}

// Report summarizes today's meals against the daily limit as markdown.
// Without rates the limit is reported as 0.
func Report(ctx context.Context, a *app.App) (*ReportOutput, error) {
	meals, err := a.API.Meals(ctx)
	if err != nil {
		return nil, err
	}

	now := a.Now()
	today := now.Format("2006-01-02")
	var todays []api.Meal
	for _, m := range meals {
		if m.Date.In(a.Location).Format("2006-01-02") == today {
			todays = append(todays, m)
		}
	}

	out := &ReportOutput{Day: today, Meals: summarize(todays, a)}
	for _, m := range out.Meals {
		out.Consumed += m.TotalCalories
	}
	if rates, err := a.API.Rates(ctx); err != nil {
		a.Logger.Warn("rates unavailable for report", "error", err)
	} else {
		out.Limit = rates.TDEE
		out.Remaining = rates.TDEE - out.Consumed
	}
	out.Markdown = reportMarkdown(out, now)
	return out, nil
}

func reportMarkdown(r *ReportOutput, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily report for %s\n\n", now.Format("Monday, 02 Jan 2006"))

	if len(r.Meals) == 0 {
		b.WriteString("No meals recorded today.\n\n")
	} else {
		b.WriteString("| Meal | Time | Calories |\n|---|---|---:|\n")
		for _, m := range r.Meals {
			fmt.Fprintf(&b, "| %s | %s | %s kcal |\n",
				escapeCell(m.Title), m.Date.In(now.Location()).Format("15:04"), api.FormatCalories(m.TotalCalories))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Consumed:** %s kcal\n\n", api.FormatCalories(r.Consumed))
	if r.Limit > 0 {
		fmt.Fprintf(&b, "**Limit (TDEE):** %s kcal\n\n", api.FormatCalories(r.Limit))
		if r.Remaining >= 0 {
			fmt.Fprintf(&b, "%s kcal left for today.\n", api.FormatCalories(r.Remaining))
		} else {
			fmt.Fprintf(&b, "Over the limit by %s kcal.\n", api.FormatCalories(-r.Remaining))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

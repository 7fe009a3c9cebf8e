package web

import (
	"html/template"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/autocomplete"
	"github.com/tftdiet/tft/internal/chart"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/notify"
	"github.com/tftdiet/tft/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "meals", "profile", "report"
	Notices []notify.Notice
}

// FormView is everything a meal form template needs.
type FormView struct {
	Instance     mealform.Instance
	Action       string
	MealID       api.ID
	Title        string
	Date         string
	Hidden       []mealform.HiddenField
	Rows         []mealform.Row
	Total        float64
	Search       autocomplete.State
	SearchAction string
}

// MealsPageData is the template data for the meal list page.
type MealsPageData struct {
	PageData
	Meals     []ops.MealSummary
	MealsErr  string
	Form      FormView
	Chart     *ChartView
	ChartErr  string
	FoodCount int
}

// EditPageData is the template data for the edit meal page.
type EditPageData struct {
	PageData
	Form FormView
}

// ProfilePageData is the template data for the personal-info page.
type ProfilePageData struct {
	PageData
	Profile *ops.ProfileOutput
	Info    api.PersonalInfo
	Genders []string
}

// ReportPageData is the template data for the daily report page.
type ReportPageData struct {
	PageData
	Report       *ops.ReportOutput
	RenderedHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// ChartView is the seven-day series laid out as SVG bars.
type ChartView struct {
	Width, Height int
	Bars          []ChartBar
	LimitY        int
	Limit         float64
	HasLimit      bool
}

// ChartBar is one day of the chart.
type ChartBar struct {
	Label  string
	Date   string
	Value  string
	X, Y   int
	W, H   int
	LabelX int
	Over   bool
}

const (
	chartWidth   = 560
	chartHeight  = 220
	chartPadding = 24
)

// newChartView scales s into a fixed-size SVG. The tallest of the highest
// day and the limit fills the plot height.
func newChartView(s *chart.Series) *ChartView {
	v := &ChartView{Width: chartWidth, Height: chartHeight, Limit: s.Limit, HasLimit: s.Limit > 0}

	peak := s.Limit
	for _, c := range s.Calories {
		if c != nil && *c > peak {
			peak = *c
		}
	}
	plot := chartHeight - 2*chartPadding
	scale := func(val float64) int {
		if peak <= 0 {
			return 0
		}
		return int(val / peak * float64(plot))
	}

	n := len(s.Labels)
	if n == 0 {
		return v
	}
	slot := (chartWidth - 2*chartPadding) / n
	for i, label := range s.Labels {
		bar := ChartBar{
			Label:  label[:3],
			Date:   s.Dates[i],
			X:      chartPadding + i*slot + slot/6,
			W:      slot * 2 / 3,
			LabelX: chartPadding + i*slot + slot/2,
		}
		if c := s.Calories[i]; c != nil {
			bar.Value = api.FormatCalories(*c)
			bar.H = scale(*c)
			bar.Over = v.HasLimit && *c > s.Limit
		}
		bar.Y = chartHeight - chartPadding - bar.H
		v.Bars = append(v.Bars, bar)
	}
	v.LimitY = chartHeight - chartPadding - scale(s.Limit)
	return v
}

package ops

import (
	"context"
	"strings"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/notify"
)

// Genders accepted by the personal-info form.
var Genders = []string{"male", "female"}

// ProfileOutput contains the personal-info form options and current values.
type ProfileOutput struct {
	ActivityLevels []api.ActivityLevel `json:"activity_levels"`
	Goals          []api.Goal          `json:"goals"`
	Info           *api.PersonalInfo   `json:"info"`
}

// LoadProfile fetches the form options and the saved personal info. Info is
// nil when nothing has been saved yet.
func LoadProfile(ctx context.Context, a *app.App) (*ProfileOutput, error) {
	levels, err := a.API.ActivityLevels(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := a.API.Goals(ctx)
	if err != nil {
		return nil, err
	}
	info, err := a.API.PersonalInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{ActivityLevels: levels, Goals: goals, Info: info}, nil
}

// ValidateProfile checks a personal-info record before it is sent.
func ValidateProfile(info api.PersonalInfo) error {
	switch {
	case info.Age <= 0:
		return errors.NewInvalidRequest("age must be positive")
	case info.Weight <= 0:
		return errors.NewInvalidRequest("weight must be positive")
	case info.Height <= 0:
		return errors.NewInvalidRequest("height must be positive")
	case info.ActivityLevelID <= 0:
		return errors.NewInvalidRequest("activity_level_id is required")
	case info.GoalID <= 0:
		return errors.NewInvalidRequest("goal_id is required")
	}
	for _, g := range Genders {
		if strings.EqualFold(info.Gender, g) {
			return nil
		}
	}
	return errors.NewInvalidRequest("gender must be one of " + strings.Join(Genders, ", "))
}

// SaveProfileOutput contains the result of SaveProfile.
type SaveProfileOutput struct {
	Notice notify.Notice    `json:"notice"`
	Info   api.PersonalInfo `json:"info"`
}

// SaveProfile stores the personal info. Rates depend on it, so the chart is
// invalidated.
func SaveProfile(ctx context.Context, a *app.App, info api.PersonalInfo) (*SaveProfileOutput, error) {
	info.Gender = strings.ToLower(strings.TrimSpace(info.Gender))
	err := ValidateProfile(info)
	if err == nil {
		err = a.API.SavePersonalInfo(ctx, info)
	}
	if err != nil {
		a.Notices.Danger(MsgProfileError)
		a.Logger.Warn("save personal info failed", "error", err)
		return nil, err
	}

	a.Chart.Invalidate()
	return &SaveProfileOutput{Notice: a.Notices.Success(MsgProfileSaved), Info: info}, nil
}

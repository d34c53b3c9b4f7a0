package services

import (
	"time"

	"dispatch-ledger/models"
)

// WeekOf returns the Tuesday-start week containing t.
// Monday belongs to the week that started the previous Tuesday.
func WeekOf(t time.Time) models.Week {
	// Monday=0 .. Sunday=6
	dow := (int(t.Weekday()) + 6) % 7
	daysSinceTuesday := (dow - 1 + 7) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return models.Week(midnight.AddDate(0, 0, -daysSinceTuesday))
}

// WeekOfPtr is WeekOf for an optional date; an absent date has no week
func WeekOfPtr(t *time.Time) *models.Week {
	if t == nil {
		return nil
	}
	w := WeekOf(*t)
	return &w
}

package models

import "time"

// Week is the midnight (UTC) of the Tuesday that starts a 7-day reporting week
type Week time.Time

const weekLayout = "2006-01-02"

// Start returns the Tuesday the week begins on
func (w Week) Start() time.Time { return time.Time(w) }

// End returns the Monday the week ends on
func (w Week) End() time.Time { return time.Time(w).AddDate(0, 0, 6) }

// Contains reports whether t falls on one of the week's seven days
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && t.Before(w.Start().AddDate(0, 0, 7))
}

func (w Week) Before(o Week) bool { return w.Start().Before(o.Start()) }

func (w Week) String() string { return w.Start().Format(weekLayout) }

// Display formats the week start like "Jan 02, 2024"
func (w Week) Display() string { return w.Start().Format("Jan 02, 2006") }

func (w Week) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Week) UnmarshalText(b []byte) error {
	t, err := time.Parse(weekLayout, string(b))
	if err != nil {
		return err
	}
	*w = Week(t)
	return nil
}

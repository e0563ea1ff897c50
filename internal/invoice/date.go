package invoice

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"freightflow/internal/model"
)

// strictLayouts are tried in order before falling back to free-text parsing.
// US month-first layouts come before day-first so that ambiguous dates keep
// the interpretation brokers expect; day-first layouts still catch values
// like "31/12/2024" that month-first cannot.
var strictLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"01-02-2006",
	"01.02.2006",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"01/02/06",
	"01-02-06",
	"01.02.06",
}

// ParseDate parses raw cell text as a calendar date in the owner's location
// and re-expresses it as a UTC calendar date (midnight UTC). This UTC
// normalization must happen before any due-date arithmetic. Returns nil when
// the input is empty or unparseable; bad dates are a flagging concern, not an
// error.
func ParseDate(raw string, loc *time.Location) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return utcDate(t, loc)
		}
	}
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return utcDate(t, loc)
	}
	return nil
}

// utcDate takes the calendar-date components of t as seen in loc and rebuilds
// them as midnight UTC.
func utcDate(t time.Time, loc *time.Location) *time.Time {
	y, m, d := t.In(loc).Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &u
}

// DueDates derives the shipper (Net 30) and carrier (Net 15) due dates from a
// UTC-normalized bill date. Due dates are always derived here, never supplied
// by the spreadsheet.
func DueDates(billDate time.Time) (shipperDue, carrierDue time.Time) {
	return billDate.AddDate(0, 0, model.ShipperTermsDays),
		billDate.AddDate(0, 0, model.CarrierTermsDays)
}

// Today anchors "now" for overdue checks: midnight of the current day in the
// owner's timezone, expressed as a UTC calendar date so it compares cleanly
// against UTC-normalized due dates.
func Today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

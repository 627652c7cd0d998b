// Package day does calendar-date arithmetic and decides whether a date
// shows the live log or an archived snapshot.
package day

import (
	"context"
	"time"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
)

// Layout is the date key format.
const Layout = "2006-01-02"

// Clock returns the current instant.
type Clock func() time.Time

// Navigator answers date questions relative to a clock and a location.
type Navigator struct {
	now Clock
	loc *time.Location
}

// NewNavigator builds a Navigator. nil clock means time.Now; nil loc means time.Local.
func NewNavigator(now Clock, loc *time.Location) *Navigator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Navigator{now: now, loc: loc}
}

// Now returns the current instant in the navigator's location.
func (n *Navigator) Now() time.Time {
	return n.now().In(n.loc)
}

// Location is where the navigator's days begin and end.
func (n *Navigator) Location() *time.Location { return n.loc }

// Today returns the current calendar date.
func (n *Navigator) Today() string {
	return n.Now().Format(Layout)
}

// Valid reports whether date is a real YYYY-MM-DD calendar date.
func Valid(date string) bool {
	_, err := time.Parse(Layout, date)
	return err == nil
}

// Shift moves date by delta days. A malformed date is treated as today.
func (n *Navigator) Shift(date string, delta int) string {
	t, err := time.ParseInLocation(Layout, date, n.loc)
	if err != nil {
		t, _ = time.ParseInLocation(Layout, n.Today(), n.loc)
	}
	// Noon keeps AddDate clear of DST edges.
	t = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, n.loc)
	return t.AddDate(0, 0, delta).Format(Layout)
}

// Before reports whether date a is strictly earlier than b. Both must be valid.
func Before(a, b string) bool {
	return a < b
}

// LiveSource exposes the current day's log.
type LiveSource interface {
	Entries() []entry.Entry
}

// SnapshotReader reads archived days.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, date string) []entry.Entry
}

// View is a resolved day.
type View struct {
	Date    string        `json:"date"`
	Live    bool          `json:"live"`
	Entries []entry.Entry `json:"entries"`
	// HasNext is false on today: there is nothing to browse forward to.
	HasNext bool `json:"has_next"`
}

// Writable returns a WrongDay error for archived views.
func (v View) Writable(today string) error {
	if !v.Live {
		return errors.NewWrongDay(v.Date, today)
	}
	return nil
}

// Resolve picks the data source for date. Today reads the live log; any
// other date reads the archive.
func (n *Navigator) Resolve(ctx context.Context, date string, live LiveSource, archive SnapshotReader) View {
	today := n.Today()
	if date == "" {
		date = today
	}
	if date == today {
		return View{Date: date, Live: true, Entries: entry.CloneAll(live.Entries()), HasNext: false}
	}
	return View{Date: date, Live: false, Entries: archive.ReadSnapshot(ctx, date), HasNext: Before(date, today)}
}

// Package calendar resolves day and date phrases against a fixed
// three-week window around a reference date.
package calendar

import (
	"strings"
	"time"
)

// Monday first, the week convention used everywhere in the bot.
var weekdays = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Day holds the three instances of one weekday inside a Window.
type Day struct {
	Weekday  time.Weekday
	Previous time.Time
	Current  time.Time
	Next     time.Time
}

// Dates returns the previous, current and next instance in order.
func (d Day) Dates() [3]time.Time {
	return [3]time.Time{d.Previous, d.Current, d.Next}
}

// Window maps every weekday to its dates in the previous, current and next
// calendar week of Reference. All dates are midnight in Reference's location.
type Window struct {
	Reference time.Time
	Days      [7]Day // Monday..Sunday
}

// BuildWindow computes the window for the week containing reference.
// It never reads the clock.
func BuildWindow(reference time.Time) Window {
	ref := dateOf(reference)
	monday := ref.AddDate(0, 0, -weekdayIndex(ref.Weekday()))

	w := Window{Reference: ref}
	for i, wd := range weekdays {
		cur := monday.AddDate(0, 0, i)
		w.Days[i] = Day{
			Weekday:  wd,
			Previous: cur.AddDate(0, 0, -7),
			Current:  cur,
			Next:     cur.AddDate(0, 0, 7),
		}
	}
	return w
}

// Day returns the entry for wd.
func (w Window) Day(wd time.Weekday) Day {
	return w.Days[weekdayIndex(wd)]
}

// Start is the Monday of the previous week.
func (w Window) Start() time.Time { return w.Days[0].Previous }

// End is the Sunday of the next week (inclusive).
func (w Window) End() time.Time { return w.Days[6].Next }

// Contains reports whether t falls on one of the 21 days of the window.
func (w Window) Contains(t time.Time) bool {
	d := dateOf(t.In(w.Reference.Location()))
	return !d.Before(w.Start()) && !d.After(w.End())
}

// Context renders the window as the plain-text calendar handed to the
// rewriter.
func (w Window) Context() string {
	var b strings.Builder
	b.WriteString("Current date: ")
	b.WriteString(w.Reference.Format("Monday, January 02, 2006"))
	b.WriteString("\n")

	sections := []struct {
		title string
		pick  func(Day) time.Time
	}{
		{"Previous week", func(d Day) time.Time { return d.Previous }},
		{"Current week", func(d Day) time.Time { return d.Current }},
		{"Next week", func(d Day) time.Time { return d.Next }},
	}
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(s.title)
		b.WriteString(":\n")
		for _, d := range w.Days {
			b.WriteString("  ")
			b.WriteString(d.Weekday.String())
			b.WriteString(": ")
			b.WriteString(s.pick(d).Format("January 02, 2006"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

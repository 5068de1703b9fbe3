package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type qualifier int

const (
	qualNone qualifier = iota
	qualThis
	qualNext
	qualLast
)

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var qualifierWords = map[string]qualifier{
	"this":     qualThis,
	"coming":   qualThis,
	"next":     qualNext,
	"last":     qualLast,
	"previous": qualLast,
	"past":     qualLast,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Words that may surround a date without changing it.
var fillerWords = map[string]bool{
	"the": true, "of": true, "on": true, "by": true, "do": true, "due": true,
	"until": true, "till": true, "before": true, "at": true, "in": true,
	"week": true, "and": true, "or": true,
	"morning": true, "afternoon": true, "evening": true, "night": true,
	"noon": true, "midnight": true,
}

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\b\.?`

var (
	// Clock times, including dotted ones: "at 10.05" and any H.MM whose
	// minutes cannot be a month.
	timeRx = regexp.MustCompile(`\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b|\b\d{1,2}:\d{2}\b` +
		`|\bat\s+\d{1,2}\.\d{2}\b|\b(?:[01]?\d|2[0-3])\.(?:1[3-9]|[2-5]\d)\b`)
	afterTmrwRx  = regexp.MustCompile(`\b(?:the\s+)?day\s+after\s+tomorrow\b`)
	tomorrowRx   = regexp.MustCompile(`\btomorrow\b`)
	todayRx      = regexp.MustCompile(`\b(?:today|tonight)\b`)
	yesterdayRx  = regexp.MustCompile(`\byesterday\b`)
	isoRx        = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dotRx        = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?\b`)
	slashRx      = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	dayMonthRx   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+` + monthPattern + `(?:,?\s+(\d{4})\b)?`)
	monthDayRx   = regexp.MustCompile(`\b` + monthPattern + `\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayOfMonthRx = regexp.MustCompile(`\bthe\s+(\d{1,2})(?:st|nd|rd|th)\b`)
)

var deadlinePrefixes = []struct {
	prefix   string
	deadline bool
}{
	{"do by ", true},
	{"due by ", true},
	{"due on ", true},
	{"due ", true},
	{"by ", true},
	{"until ", true},
	{"till ", true},
	{"before ", true},
	{"on ", false},
}

// TrimDeadline strips a leading "by"/"do by"/"on" style prefix and reports
// whether the prefix marked a deadline.
func TrimDeadline(phrase string) (string, bool) {
	p := strings.TrimSpace(phrase)
	lower := strings.ToLower(p)
	for _, dp := range deadlinePrefixes {
		if strings.HasPrefix(lower, dp.prefix) {
			return strings.TrimSpace(p[len(dp.prefix):]), dp.deadline
		}
	}
	return p, false
}

// candidate is one date reading found in a phrase.
type candidate struct {
	date time.Time
	err  error
}

// Resolve maps phrase to an absolute date using w. It accepts explicit
// dates ("20 January", "2026-01-20"), weekday phrases ("Tuesday",
// "next Tuesday", "last Friday") and today/tomorrow/yesterday. A bare
// weekday that already passed this week moves to next week.
func Resolve(w Window, phrase string) (time.Time, error) {
	p := normalize(phrase)
	if p == "" {
		return time.Time{}, &NotFoundError{Phrase: phrase, Reason: "empty phrase"}
	}

	masked := []byte(p)
	masked = mask(masked, timeRx)

	var found []candidate
	ref := w.Reference
	collect := func(rx *regexp.Regexp, build func(m []string) candidate) {
		for _, loc := range rx.FindAllSubmatchIndex(masked, -1) {
			m := make([]string, len(loc)/2)
			for i := range m {
				if loc[2*i] >= 0 {
					m[i] = string(masked[loc[2*i]:loc[2*i+1]])
				}
			}
			found = append(found, build(m))
		}
		masked = mask(masked, rx)
	}

	offset := func(days int) func([]string) candidate {
		return func([]string) candidate { return candidate{date: ref.AddDate(0, 0, days)} }
	}
	collect(afterTmrwRx, offset(2))
	collect(tomorrowRx, offset(1))
	collect(todayRx, offset(0))
	collect(yesterdayRx, offset(-1))
	collect(isoRx, func(m []string) candidate {
		return explicitDate(phrase, ref, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	})
	collect(dotRx, func(m []string) candidate {
		return explicitDate(phrase, ref, year(m[3]), atoi(m[2]), atoi(m[1]))
	})
	collect(slashRx, func(m []string) candidate {
		return slashDate(phrase, ref, atoi(m[1]), atoi(m[2]), year(m[3]))
	})
	collect(dayMonthRx, func(m []string) candidate {
		return explicitDate(phrase, ref, year(m[3]), int(monthNames[m[2]]), atoi(m[1]))
	})
	collect(monthDayRx, func(m []string) candidate {
		return explicitDate(phrase, ref, year(m[3]), int(monthNames[m[1]]), atoi(m[2]))
	})
	collect(dayOfMonthRx, func(m []string) candidate {
		return dayOfMonth(phrase, ref, atoi(m[1]))
	})

	days, qual, leftover := scanWords(string(masked))
	if leftover != "" {
		return time.Time{}, &NotFoundError{Phrase: phrase, Reason: "unexpected word " + strconv.Quote(leftover)}
	}

	switch {
	case len(found) > 1:
		return time.Time{}, &AmbiguousError{Phrase: phrase, Reason: "more than one date", Candidates: dates(found)}
	case len(found) == 1:
		c := found[0]
		if c.err != nil {
			return time.Time{}, c.err
		}
		if len(days) > 1 || (len(days) == 1 && days[0] != c.date.Weekday()) {
			return time.Time{}, &AmbiguousError{Phrase: phrase, Reason: "weekday does not match date", Candidates: []time.Time{c.date}}
		}
		return c.date, nil
	case len(days) > 1:
		var cands []time.Time
		for _, wd := range days {
			if d, err := resolveWeekday(w, phrase, wd, qual); err == nil {
				cands = append(cands, d)
			}
		}
		return time.Time{}, &AmbiguousError{Phrase: phrase, Reason: "more than one weekday", Candidates: cands}
	case len(days) == 1:
		return resolveWeekday(w, phrase, days[0], qual)
	}
	return time.Time{}, &NotFoundError{Phrase: phrase, Reason: "no weekday or date"}
}

func resolveWeekday(w Window, phrase string, wd time.Weekday, q qualifier) (time.Time, error) {
	day := w.Day(wd)
	passed := day.Current.Before(w.Reference)
	switch q {
	case qualLast:
		return day.Previous, nil
	case qualNext:
		if passed {
			// Said on a Thursday, "next Tuesday" is either the coming one or
			// the one a week later.
			return time.Time{}, &AmbiguousError{
				Phrase:     phrase,
				Reason:     "this week's " + wd.String() + " already passed",
				Candidates: []time.Time{day.Next, day.Next.AddDate(0, 0, 7)},
			}
		}
		return day.Next, nil
	}
	if passed {
		return day.Next, nil
	}
	return day.Current, nil
}

// scanWords returns the distinct weekdays named in s, the qualifier that
// applies to them, and the first word that is neither a date word nor a
// filler.
func scanWords(s string) ([]time.Weekday, qualifier, string) {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var (
		days     []time.Weekday
		seen     = map[time.Weekday]bool{}
		qual     = qualNone
		weekQual = qualNone
		leftover string
	)
	for i, word := range words {
		if wd, ok := weekdayNames[word]; ok {
			if !seen[wd] {
				seen[wd] = true
				days = append(days, wd)
			}
			if i > 0 {
				if q, ok := qualifierWords[words[i-1]]; ok {
					qual = q
				}
			}
			continue
		}
		if q, ok := qualifierWords[word]; ok {
			if i+1 < len(words) && words[i+1] == "week" {
				weekQual = q
			}
			continue
		}
		if fillerWords[word] {
			continue
		}
		if leftover == "" {
			leftover = word
		}
	}
	if qual == qualNone {
		qual = weekQual
	}
	return days, qual, leftover
}

func explicitDate(phrase string, ref time.Time, y, m, d int) candidate {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
	}
	loc := ref.Location()
	if y != 0 {
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
		if t.Day() != d {
			return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
		}
		return candidate{date: t}
	}
	// Soonest occurrence on or after ref; the loop covers Feb 29.
	for yy := ref.Year(); yy <= ref.Year()+8; yy++ {
		t := time.Date(yy, time.Month(m), d, 0, 0, 0, 0, loc)
		if t.Day() != d || t.Before(ref) {
			continue
		}
		return candidate{date: t}
	}
	return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
}

// slashDate reads a/b as day/month or month/day; it is ambiguous when both
// readings are valid and differ.
func slashDate(phrase string, ref time.Time, a, b, y int) candidate {
	switch {
	case a > 12 && b > 12:
		return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
	case a > 12:
		return explicitDate(phrase, ref, y, b, a)
	case b > 12 || a == b:
		return explicitDate(phrase, ref, y, a, b)
	}
	dm := explicitDate(phrase, ref, y, b, a)
	md := explicitDate(phrase, ref, y, a, b)
	return candidate{err: &AmbiguousError{
		Phrase:     phrase,
		Reason:     "day/month order unclear",
		Candidates: dates([]candidate{dm, md}),
	}}
}

func dayOfMonth(phrase string, ref time.Time, d int) candidate {
	if d < 1 || d > 31 {
		return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
	}
	for i := 0; i < 12; i++ {
		first := time.Date(ref.Year(), ref.Month()+time.Month(i), 1, 0, 0, 0, 0, ref.Location())
		t := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, ref.Location())
		if t.Month() != first.Month() || t.Before(ref) {
			continue
		}
		return candidate{date: t}
	}
	return candidate{err: &NotFoundError{Phrase: phrase, Reason: "no such date"}}
}

func normalize(phrase string) string {
	p, _ := TrimDeadline(phrase)
	p = strings.ToLower(p)
	p = strings.Trim(p, " \t\n.,!?;:")
	return strings.Join(strings.Fields(p), " ")
}

// mask blanks every match of rx so later patterns cannot reuse it.
func mask(b []byte, rx *regexp.Regexp) []byte {
	for _, loc := range rx.FindAllIndex(b, -1) {
		for i := loc[0]; i < loc[1]; i++ {
			b[i] = ' '
		}
	}
	return b
}

func dates(cs []candidate) []time.Time {
	var out []time.Time
	for _, c := range cs {
		if c.err == nil {
			out = append(out, c.date)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func year(s string) int {
	if s == "" {
		return 0
	}
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

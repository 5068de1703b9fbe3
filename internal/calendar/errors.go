package calendar

import (
	"fmt"
	"strings"
	"time"
)

// AmbiguousError is returned when a phrase has more than one plausible
// reading and no qualifier picks one.
type AmbiguousError struct {
	Phrase     string
	Reason     string
	Candidates []time.Time
}

func (e *AmbiguousError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("ambiguous date %q: %s", e.Phrase, e.Reason)
	}
	dates := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		dates = append(dates, c.Format("2006-01-02"))
	}
	return fmt.Sprintf("ambiguous date %q: %s (%s)", e.Phrase, e.Reason, strings.Join(dates, ", "))
}

// NotFoundError is returned when no weekday or date could be read from a
// phrase.
type NotFoundError struct {
	Phrase string
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no date in %q: %s", e.Phrase, e.Reason)
}

// Package splitter turns the rewriter's reply into reminder statements.
package splitter

import (
	"errors"
	"iter"
	"strings"
	"sync/atomic"

	"telegram-reminder-bot/internal/calendar"
	"telegram-reminder-bot/internal/models"
)

// DefaultSeparator delimits reminders in the rewriter's reply. It is part of
// the prompt contract identified by PromptContractVersion; change both
// together.
const (
	DefaultSeparator      = "---"
	PromptContractVersion = "v1"
)

type Splitter struct {
	sep string
}

func New(separator string) *Splitter {
	if strings.TrimSpace(separator) == "" {
		separator = DefaultSeparator
	}
	return &Splitter{sep: separator}
}

func (s *Splitter) Separator() string { return s.sep }

// Split yields one statement per non-empty segment of text, in order. The
// returned sequence is lazy and single-use: ranging over it again yields
// nothing.
func (s *Splitter) Split(text string, w calendar.Window) iter.Seq[models.Statement] {
	var used atomic.Bool
	return func(yield func(models.Statement) bool) {
		if used.Swap(true) {
			return
		}
		rest := text
		for rest != "" {
			seg, tail, found := strings.Cut(rest, s.sep)
			rest = tail
			if !found {
				rest = ""
			}
			st, ok := parseSegment(seg, w)
			if !ok {
				continue
			}
			if !yield(st) {
				return
			}
		}
	}
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[models.Statement]) []models.Statement {
	var out []models.Statement
	for st := range seq {
		out = append(out, st)
	}
	return out
}

// parseSegment separates the reminder text from an optional trailing date
// annotation: the last paragraph, or failing that the text after the last
// comma.
func parseSegment(seg string, w calendar.Window) (models.Statement, bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return models.Statement{}, false
	}

	body, annotation := lastParagraph(seg)
	if annotation == "" {
		if i := strings.LastIndex(seg, ","); i >= 0 {
			body, annotation = seg[:i], seg[i+1:]
		}
	}
	body = strings.TrimSpace(body)
	annotation = strings.TrimSpace(annotation)
	if annotation == "" || body == "" {
		return models.Statement{Text: collapse(seg)}, true
	}

	st := models.Statement{Text: collapse(body)}
	_, st.Deadline = calendar.TrimDeadline(annotation)

	date, err := calendar.Resolve(w, annotation)
	var amb *calendar.AmbiguousError
	switch {
	case err == nil:
		st.ResolvedDate = &date
		st.SourceDayPhrase = annotation
	case errors.As(err, &amb):
		st.Ambiguous = true
		st.SourceDayPhrase = annotation
	default:
		// Not a date: the annotation belongs to the text.
		return models.Statement{Text: collapse(seg)}, true
	}
	return st, true
}

func lastParagraph(seg string) (string, string) {
	seg = strings.ReplaceAll(seg, "\r\n", "\n")
	i := strings.LastIndex(seg, "\n\n")
	if i < 0 {
		return seg, ""
	}
	return seg[:i], seg[i+2:]
}

// collapse joins the lines of a reminder body into one trimmed line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

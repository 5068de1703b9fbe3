package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-reminder-bot/internal/models"
)

func TestReminder(t *testing.T) {
	d := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		st   models.Statement
		want string
	}{
		{"plain", models.Statement{Text: "Order the meds"}, "Order the meds"},
		{"dated", models.Statement{Text: "Call mom", ResolvedDate: &d}, "Call mom\n\nApril 15, 2026"},
		{"deadline", models.Statement{Text: "Make tax report", ResolvedDate: &d, Deadline: true}, "Make tax report\n\ndo by April 15, 2026"},
		{"ambiguous", models.Statement{Text: "Dentist", Ambiguous: true, SourceDayPhrase: "next Tuesday"},
			"Dentist\n\n⚠️ Unclear date: \"next Tuesday\". Please send it again with an exact date."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reminder(tt.st))
		})
	}
}

func TestLabelsAndAnswers(t *testing.T) {
	assert.Equal(t, "✅ Done", ActionLabel(models.ActionAcknowledge))
	assert.Equal(t, "❌ Cancel", ActionLabel(models.ActionCancel))
	assert.Equal(t, "snooze", ActionLabel(models.Action("snooze")))

	assert.Equal(t, "Done ✅", Answer(models.StateAcknowledged))
	assert.Equal(t, "Cancelled", Answer(models.StateCancelled))
	assert.Empty(t, Answer(models.StatePending))
	assert.Contains(t, PostFailed(2), "2 reminders")
}

func TestTimezoneTexts(t *testing.T) {
	now := time.Date(2026, time.January, 7, 23, 30, 0, 0, time.UTC)
	plus3 := time.FixedZone("UTC+3", 3*3600)

	assert.Equal(t, "Your timezone is UTC+3. Today is Thursday, January 8, 2026.", TimezoneCurrent(plus3, now))
	assert.Contains(t, TimezoneSet(time.UTC, now), "Wednesday, January 7, 2026")
	assert.Contains(t, TimezoneUnknown("Mars/Base"), `"Mars/Base"`)
}

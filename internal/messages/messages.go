// Package messages holds every user-facing text the bot sends.
package messages

import (
	"fmt"
	"strings"
	"time"

	"telegram-reminder-bot/internal/models"
)

const (
	Welcome = "Welcome to Reminder Bot!\n\n" +
		"Send me your reminders and I'll organize them for you.\n" +
		"Example: 'STUDY FOR EXAM TOMORROW' or 'Order meds, pay bills by Friday'\n\n" +
		"I'll clean up your message and send back organized reminders with Done/Cancel buttons."

	Help = "Just write what you need to remember, as loosely as you like.\n\n" +
		"• Several tasks in one message become separate reminders.\n" +
		"• Days like 'next Tuesday' or 'by the 20th' are turned into dates.\n" +
		"• Press ✅ Done or ❌ Cancel to clear a reminder.\n\n" +
		"Commands:\n" +
		"/timezone — show your timezone\n" +
		"/timezone Europe/Berlin — change it\n" +
		"/timezone reset — back to the default"

	RewriteFailed = "Sorry, I couldn't process that message right now. " +
		"I kept your message, please try again in a moment."

	NothingFound = "I couldn't find any reminders in that message. I kept it as it is."

	TimezoneSaveFailed = "Sorry, I couldn't save your timezone. Please try again later."

	TimezoneUsage = "Send /timezone followed by a zone name, e.g. /timezone Europe/Berlin"
)

const dateLayout = "January 2, 2006"

var actionLabels = map[models.Action]string{
	models.ActionAcknowledge: "✅ Done",
	models.ActionCancel:      "❌ Cancel",
}

// ActionLabel is the button caption for a.
func ActionLabel(a models.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// Reminder renders a statement the way the rewriter formats it: the task,
// a blank line, then the date. An unclear date is flagged, not guessed.
func Reminder(st models.Statement) string {
	var b strings.Builder
	b.WriteString(st.Text)
	switch {
	case st.ResolvedDate != nil:
		b.WriteString("\n\n")
		if st.Deadline {
			b.WriteString("do by ")
		}
		b.WriteString(st.ResolvedDate.Format(dateLayout))
	case st.Ambiguous:
		fmt.Fprintf(&b, "\n\n⚠️ Unclear date: %q. Please send it again with an exact date.", st.SourceDayPhrase)
	}
	return b.String()
}

// PostFailed tells the user how many reminders could not be posted.
func PostFailed(n int) string {
	if n == 1 {
		return "One reminder could not be posted. I kept your message, please try again."
	}
	return fmt.Sprintf("%d reminders could not be posted. I kept your message, please try again.", n)
}

// Answer is the short toast shown after a button press.
func Answer(s models.State) string {
	switch s {
	case models.StateAcknowledged:
		return "Done ✅"
	case models.StateCancelled:
		return "Cancelled"
	}
	return ""
}

func TimezoneCurrent(loc *time.Location, now time.Time) string {
	return fmt.Sprintf("Your timezone is %s. Today is %s.", loc, now.In(loc).Format("Monday, "+dateLayout))
}

func TimezoneSet(loc *time.Location, now time.Time) string {
	return fmt.Sprintf("Timezone set to %s. Today is %s.", loc, now.In(loc).Format("Monday, "+dateLayout))
}

func TimezoneUnknown(name string) string {
	return fmt.Sprintf("I don't know the timezone %q. %s", name, TimezoneUsage)
}

package rewriter

import (
	"strings"

	"telegram-reminder-bot/internal/calendar"
)

const systemPromptTemplate = `You are a helpful assistant that parses and polishes reminder messages.

{{calendar}}
Your task:
1. Parse the user's vague reminder message
2. Split it into separate tasks if there are multiple tasks mentioned
3. Polish each task to be clear and concise
4. If a date or time is mentioned (like "tomorrow", "next Tuesday", "by April 15"), convert it to the actual date using the calendar above
5. If the message mentions a deadline or says "by [date]", include "do by" before the date
6. If you cannot tell which date is meant, keep the user's original day phrase instead of guessing
7. Format each reminder as:
   - If date is mentioned: "Task description\n\nDate" (task, blank line, date)
   - If no date: just "Task description"

Return ONLY the polished reminders separated by "{{sep}}". Do not add any explanations or extra text.

Examples:
Input: "STUDY FOR EXAM TOMORROW"
Output: Study for exam

January 9, 2026

Input: "Order the meds, make tax report by April 15"
Output: Order the meds
{{sep}}
Make tax report

do by April 15, 2026

Input: "Call mom on Tuesday next week and buy groceries"
Output: Call mom

January 14, 2026
{{sep}}
Buy groceries`

// SystemPrompt renders the instructions sent with every rewrite call.
func SystemPrompt(w calendar.Window, separator string) string {
	return strings.NewReplacer(
		"{{calendar}}", w.Context(),
		"{{sep}}", separator,
	).Replace(systemPromptTemplate)
}

package models

import "time"

// MessageRef identifies a single chat message.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

func (r MessageRef) IsZero() bool { return r.ChatID == 0 && r.MessageID == 0 }

// Statement is one clarified reminder extracted from a user message.
type Statement struct {
	Text            string     `json:"text"`
	ResolvedDate    *time.Time `json:"resolved_date,omitempty"` // nil -> no date
	SourceDayPhrase string     `json:"source_day_phrase,omitempty"`
	Deadline        bool       `json:"deadline"`  // "do by …"
	Ambiguous       bool       `json:"ambiguous"` // phrase kept, date not guessed
}

// Entry tracks a posted reminder until its message is deleted.
type Entry struct {
	ID         string     `json:"id"`
	Statement  Statement  `json:"statement"`
	Ref        MessageRef `json:"ref"`    // posted reminder message
	Source     MessageRef `json:"source"` // user's raw message
	State      State      `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt time.Time  `json:"resolved_at"`
	// DeleteAttempts counts failed deletions of Ref after resolution.
	DeleteAttempts int `json:"delete_attempts"`
}

// ActionEvent is emitted by the transport when a user presses a reminder button.
type ActionEvent struct {
	Ref        MessageRef
	Action     Action
	CallbackID string
}

// Inbound is a plain text message or command received from a chat.
type Inbound struct {
	Ref     MessageRef
	Text    string
	Command string // without the leading slash, empty for plain text
	Args    string
}

// ChatSettings stores per-chat preferences.
type ChatSettings struct {
	ChatID    int64  `db:"chat_id"    json:"chat_id"`
	TZ        string `db:"tz"         json:"tz"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// Update is one item from the chat transport's inbound stream; exactly one
// field is set.
type Update struct {
	Message *Inbound
	Action  *ActionEvent
}

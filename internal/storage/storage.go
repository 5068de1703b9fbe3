package storage

import (
	"database/sql"
	"embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"telegram-reminder-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// DB keeps chat settings. Reminders themselves are never stored.
type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if err = migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- chats -----------------------------------------------------------

func (d *DB) SetTimezone(chatID int64, tz string) error {
	now := time.Now().Unix()
	_, err := d.Exec(`
        INSERT INTO chats (chat_id, tz, created_at, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET tz=excluded.tz,
            updated_at=excluded.updated_at
    `, chatID, tz, now, now)
	return err
}

// GetChat returns nil, nil when the chat has no settings yet.
func (d *DB) GetChat(chatID int64) (*models.ChatSettings, error) {
	var c models.ChatSettings

	err := d.QueryRow(`
        SELECT chat_id, tz, created_at, updated_at
        FROM chats WHERE chat_id=?`, chatID,
	).Scan(&c.ChatID, &c.TZ, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Timezone returns the chat's location, or fallback if none is stored or
// the stored name no longer loads.
func (d *DB) Timezone(chatID int64, fallback *time.Location) (*time.Location, error) {
	c, err := d.GetChat(chatID)
	if err != nil || c == nil {
		return fallback, err
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return fallback, nil
	}
	return loc, nil
}

func (d *DB) ClearChat(chatID int64) error {
	_, err := d.Exec(`DELETE FROM chats WHERE chat_id = ?`, chatID)
	return err
}

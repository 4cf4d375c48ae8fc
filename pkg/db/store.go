package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// SetItem stores value under key, replacing any previous value.
func SetItem(db DBExecutor, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  value = excluded.value,
		  updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetItem returns the value stored under key. ok is false if the key is missing.
func GetItem(db DBExecutor, key string) (value string, ok bool, err error) {
	err = db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// KV adapts a connection or transaction to the engine's Storage and Loader interfaces.
type KV struct {
	DB DBExecutor
}

func (kv KV) SetItem(key, value string) error { return SetItem(kv.DB, key, value) }

func (kv KV) GetItem(key string) (string, bool, error) { return GetItem(kv.DB, key) }

// LogUtterance records a learned message and returns its ULID.
func LogUtterance(db DBExecutor, text string, tags map[string]string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("text must be non-empty")
	}
	var tagsJSON interface{}
	if len(tags) > 0 {
		b, err := json.Marshal(tags)
		if err != nil {
			return "", fmt.Errorf("encode tags: %w", err)
		}
		tagsJSON = string(b)
	}

	now := time.Now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	if _, err := db.Exec(`INSERT INTO utterances (id, text, tags, learned_at) VALUES (?, ?, ?, ?)`,
		id, trimmed, tagsJSON, now); err != nil {
		return "", fmt.Errorf("insert utterance: %w", err)
	}
	return id, nil
}

// ListUtterances returns every logged utterance in the order it was learned.
func ListUtterances(db DBExecutor) ([]Utterance, error) {
	rows, err := db.Query(`SELECT id, text, tags, learned_at FROM utterances ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Utterance
	for rows.Next() {
		var u Utterance
		var tags sql.NullString
		if err := rows.Scan(&u.ID, &u.Text, &tags, &u.LearnedAt); err != nil {
			return nil, err
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &u.Tags); err != nil {
				return nil, fmt.Errorf("decode tags of %s: %w", u.ID, err)
			}
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUtterances returns the number of logged utterances.
func CountUtterances(db DBExecutor) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM utterances`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

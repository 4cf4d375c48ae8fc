package db

import "time"

// Utterance is one learned message, kept so the chain can be rebuilt.
type Utterance struct {
	ID        string
	Text      string
	Tags      map[string]string
	LearnedAt time.Time
}

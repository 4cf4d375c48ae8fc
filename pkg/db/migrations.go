package db

// migrationsSQL is idempotent; statements are separated by semicolons, so
// none of them may contain one.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS utterances (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	tags       TEXT,
	learned_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_utterances_learned_at ON utterances(learned_at);
`

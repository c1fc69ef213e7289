package store

import "database/sql"

// migrate creates the schema if it doesn't exist.
func migrate(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS customers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS customer_contacts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL REFERENCES customers(id),
			name        TEXT NOT NULL,
			email       TEXT NOT NULL DEFAULT '',
			phone       TEXT NOT NULL DEFAULT '',
			role        TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS jobs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			customer_id     INTEGER REFERENCES customers(id),
			status          TEXT NOT NULL DEFAULT 'pending',
			priority        TEXT NOT NULL DEFAULT 'medium',
			scheduled_date  TEXT NOT NULL DEFAULT '',
			due_date        TEXT NOT NULL DEFAULT '',
			estimated_hours REAL NOT NULL DEFAULT 0,
			used_hours      REAL NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS material_inventory (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			checked_in_date  TEXT NOT NULL DEFAULT '',
			mfg              TEXT NOT NULL DEFAULT '',
			pn               TEXT NOT NULL DEFAULT '',
			sn               TEXT NOT NULL DEFAULT '',
			job_number       TEXT NOT NULL DEFAULT '',
			po_number        TEXT NOT NULL DEFAULT '',
			customer         TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			check_out_date   TEXT NOT NULL DEFAULT '',
			transmittal_form TEXT NOT NULL DEFAULT 'no',
			type             TEXT NOT NULL DEFAULT 'misc',
			return_needed    TEXT NOT NULL DEFAULT 'no',
			location         TEXT NOT NULL DEFAULT '',
			qty              INTEGER NOT NULL DEFAULT 1,
			vendor           TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS prospects (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			company      TEXT NOT NULL,
			contact_name TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL DEFAULT '',
			phone        TEXT NOT NULL DEFAULT '',
			stage        TEXT NOT NULL DEFAULT 'lead',
			priority     INTEGER NOT NULL DEFAULT 0,
			notes        TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sub_tasks (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id          INTEGER NOT NULL REFERENCES jobs(id),
			title           TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'pending',
			priority        TEXT NOT NULL DEFAULT 'medium',
			due_date        TEXT NOT NULL DEFAULT '',
			estimated_hours REAL NOT NULL DEFAULT 0,
			used_hours      REAL NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			role     TEXT NOT NULL DEFAULT 'tech',
			email    TEXT NOT NULL DEFAULT '',
			phone    TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS attendance (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id   INTEGER NOT NULL REFERENCES users(id),
			check_in  TEXT NOT NULL,
			check_out TEXT,
			notes     TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS ai_conversations (
			id         TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ai_messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL REFERENCES ai_conversations(id),
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ai_usage (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       INTEGER NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost_usd      REAL NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_inventory_desc ON material_inventory(description);
		CREATE INDEX IF NOT EXISTS idx_prospects_stage ON prospects(stage);
		CREATE INDEX IF NOT EXISTS idx_sub_tasks_job ON sub_tasks(job_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id);
		CREATE INDEX IF NOT EXISTS idx_ai_messages_conv ON ai_messages(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_ai_usage_user ON ai_usage(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

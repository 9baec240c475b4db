package store

import "database/sql"

// migrateV001 creates the workDiary table and its query indexes.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workDiary (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			projectID           TEXT NOT NULL,
			userID              TEXT NOT NULL,
			taskID              TEXT NOT NULL,
			screenshotTimeStamp TEXT NOT NULL,
			calcTimeStamp       TEXT NOT NULL,
			keyboardJSON        TEXT NOT NULL DEFAULT '{}',
			mouseJSON           TEXT NOT NULL DEFAULT '{}',
			activeJSON          TEXT NOT NULL DEFAULT '{}',
			activeFlag          INTEGER,
			activeMins          INTEGER NOT NULL DEFAULT 0 CHECK (activeMins >= 0),
			deletedFlag         INTEGER NOT NULL DEFAULT 0,
			activeMemo          TEXT NOT NULL DEFAULT '',
			imageURL            TEXT,
			thumbNailURL        TEXT,
			createdAt           TEXT NOT NULL,
			modifiedAt          TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workdiary_user_ts ON workDiary(userID, screenshotTimeStamp)`,
		`CREATE INDEX IF NOT EXISTS idx_workdiary_deleted_ts ON workDiary(deletedFlag, screenshotTimeStamp)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

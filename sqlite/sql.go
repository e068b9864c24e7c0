package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/hoshinonyaruko/snake-web/structs"
	_ "github.com/mattn/go-sqlite3"
)

const createSessionsTableSQL = `
CREATE TABLE IF NOT EXISTS Sessions (
    SessionID TEXT PRIMARY KEY,
    Score INTEGER,
    Length INTEGER,
    Ticks INTEGER,
    TileCount INTEGER,
    StartedAt TIMESTAMP,
    EndedAt TIMESTAMP
);
`

const createScoreIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_session_score ON Sessions (Score DESC);
`

// Open 打开数据库并建表
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("error executing SQL statement: %s: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	if err := executeSQL(db, createSessionsTableSQL); err != nil {
		return err
	}
	return executeSQL(db, createScoreIndexSQL)
}

// RecordResult 保存一局结束的游戏，同一局重复写入会覆盖
func RecordResult(db *sql.DB, r structs.Result) error {
	_, err := db.Exec("INSERT OR REPLACE INTO Sessions (SessionID, Score, Length, Ticks, TileCount, StartedAt, EndedAt) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.SessionID, r.Score, r.Length, int64(r.Ticks), r.TileCount, r.StartedAt.UTC(), r.EndedAt.UTC())
	return err
}

// TopScores returns the best finished games, highest score first.
func TopScores(db *sql.DB, limit int) ([]structs.Result, error) {
	rows, err := db.Query("SELECT SessionID, Score, Length, Ticks, TileCount, StartedAt, EndedAt FROM Sessions ORDER BY Score DESC, EndedAt ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []structs.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultByID returns sql.ErrNoRows when the session is unknown.
func ResultByID(db *sql.DB, sessionID string) (structs.Result, error) {
	row := db.QueryRow("SELECT SessionID, Score, Length, Ticks, TileCount, StartedAt, EndedAt FROM Sessions WHERE SessionID = ?", sessionID)
	return scanResult(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (structs.Result, error) {
	var r structs.Result
	var ticks int64
	if err := s.Scan(&r.SessionID, &r.Score, &r.Length, &ticks, &r.TileCount, &r.StartedAt, &r.EndedAt); err != nil {
		return structs.Result{}, err
	}
	r.Ticks = uint64(ticks)
	return r, nil
}

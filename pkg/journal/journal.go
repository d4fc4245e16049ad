package journal

import (
	"database/sql"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal records every lifecycle cycle so operators can see what happened
// after the fact, including on hosts that were offline at the time.
type Journal struct {
	DB *sql.DB
}

// Entry is one recorded cycle.
type Entry struct {
	Id       int
	Started  string
	Finished string
	Version  string
	Outcome  string
	Stage    string
	Detail   string
}

func Open(dbPath string) (*Journal, error) {
	create := false
	if _, err := os.Stat(dbPath); err != nil {
		create = true
		file, err := os.Create(dbPath)
		if err != nil {
			return nil, err
		}
		file.Close()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if create {
		cycleTable := `CREATE TABLE cycles (
			"ID" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"Started" TEXT,
			"Finished" TEXT,
			"Version" TEXT,
			"Outcome" TEXT,
			"Stage" TEXT,
			"Detail" TEXT);`
		query, err := db.Prepare(cycleTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		query.Exec()
	}

	return &Journal{DB: db}, nil
}

func (j *Journal) Close() error {
	return j.DB.Close()
}

// Record appends one finished cycle.
func (j *Journal) Record(started time.Time, version, outcome, stage, detail string) error {
	sqlRow := `INSERT INTO cycles
				("Started", "Finished", "Version", "Outcome", "Stage", "Detail")
				VALUES
				(?, ?, ?, ?, ?, ?)`

	_, err := j.DB.Exec(sqlRow,
		started.Format(time.RFC3339), time.Now().Format(time.RFC3339),
		version, outcome, stage, detail)

	return err
}

// Recent returns the latest limit cycles, newest first.
func (j *Journal) Recent(limit int) ([]*Entry, error) {
	entries := []*Entry{}

	sqlRow := `SELECT * FROM cycles ORDER BY ID DESC LIMIT ?`
	rows, err := j.DB.Query(sqlRow, limit)

	if err != nil {
		return entries, err
	}

	defer rows.Close()

	for rows.Next() {
		e := &Entry{}
		err = rows.Scan(&e.Id, &e.Started, &e.Finished,
			&e.Version, &e.Outcome, &e.Stage, &e.Detail)

		if err != nil {
			continue
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return entries, err
	}

	return entries, nil
}

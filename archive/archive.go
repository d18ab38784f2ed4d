// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive records the results of experiment runs in a SQL
// database.
//
// The experiment pipeline only ever appends to an archive; reading
// runs back is left to other tools.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chronos-gpu/chronosbench/results"
)

// DB is a results archive backed by a SQL database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB

	insertRun    *sql.Stmt
	insertRecord *sql.Stmt
}

// OpenSQL opens an archive. The parameters are the same as the
// parameters for sql.Open. Only mysql and sqlite3 are supported.
// Missing tables are created.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	if driverName != "mysql" && driverName != "sqlite3" {
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite3" {
		// Every connection to ":memory:" is a separate database,
		// and foreign keys are per connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Open opens an archive named by target, which has the form
// "driver:dataSourceName", for example "sqlite3:results.db".
func Open(target string) (*DB, error) {
	driver, dsn, ok := strings.Cut(target, ":")
	if !ok || dsn == "" {
		return nil, fmt.Errorf("database %q is not of the form driver:dsn", target)
	}
	return OpenSQL(driver, dsn)
}

// createTmpl is evaluated with . as a map containing one entry whose
// key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Timestamp VARCHAR(32) NOT NULL,
	Executable VARCHAR(4096) NOT NULL
);
CREATE TABLE IF NOT EXISTS Records (
	RunID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Position INTEGER NOT NULL,
	MeanMs DOUBLE NOT NULL,
	StdDevMs DOUBLE NOT NULL,
	MinMs DOUBLE NOT NULL,
	MaxMs DOUBLE NOT NULL,
	Samples BIGINT NOT NULL,
	PRIMARY KEY (RunID, Name),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Timestamp, Executable) VALUES (?, ?)")
	if err != nil {
		return err
	}
	db.insertRecord, err = db.sql.Prepare("INSERT INTO Records(RunID, Name, Position, MeanMs, StdDevMs, MinMs, MaxMs, Samples) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// InsertRun records a run and all of its records in one transaction.
// It returns the new run's ID.
func (db *DB) InsertRun(ctx context.Context, timestamp, executable string, tbl *results.Table) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, timestamp, executable)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	stmt := tx.StmtContext(ctx, db.insertRecord)
	for i, rec := range tbl.Records() {
		if _, err := stmt.ExecContext(ctx, id, rec.Name, i, rec.Mean, rec.StdDev, rec.Min, rec.Max, rec.Samples); err != nil {
			return 0, fmt.Errorf("insert %q: %w", rec.Name, err)
		}
	}
	return id, nil
}

// Table returns the records of run id in their original order.
func (db *DB) Table(ctx context.Context, id int64) (*results.Table, error) {
	rows, err := db.sql.QueryContext(ctx,
		"SELECT Name, MeanMs, StdDevMs, MinMs, MaxMs, Samples FROM Records WHERE RunID = ? ORDER BY Position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tbl := new(results.Table)
	for rows.Next() {
		var rec results.Record
		if err := rows.Scan(&rec.Name, &rec.Mean, &rec.StdDev, &rec.Min, &rec.Max, &rec.Samples); err != nil {
			return nil, err
		}
		tbl.Add(rec)
	}
	return tbl, rows.Err()
}

// CountRuns returns the number of runs stored in the archive.
func (db *DB) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Runs").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.insertRecord.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}

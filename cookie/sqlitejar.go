// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"database/sql"
	"time"

	_ "github.com/glebarez/go-sqlite"
	pkgerrors "github.com/pkg/errors"

	"github.com/karhu/httpc/log"
)

// A SQLiteJar is a Jar persisted in a SQLite database, so cookies
// survive process restarts. Storage errors are logged on the
// diagnostic channel rather than surfaced to the execution chain; a
// request never fails because the jar could not be written.
type SQLiteJar struct {
	db *sql.DB
}

var _ Jar = (*SQLiteJar)(nil)

// OpenSQLiteJar opens (creating if necessary) the jar database at
// filename. Use ":memory:" for a throwaway in-process jar.
func OpenSQLiteJar(filename string) (*SQLiteJar, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open cookie jar database")
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cookies (
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		domain TEXT NOT NULL,
		path TEXT NOT NULL,
		expires INTEGER NOT NULL,
		secure INTEGER NOT NULL,
		host_only INTEGER NOT NULL,
		http_only INTEGER NOT NULL,
		PRIMARY KEY (name, domain, path))`)
	if err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "failed to create cookie jar schema")
	}
	return &SQLiteJar{db: db}, nil
}

// Add stores c, replacing any cookie with the same identity.
func (j *SQLiteJar) Add(c *Cookie) {
	var expires int64
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}
	_, err := j.db.Exec(`INSERT OR REPLACE INTO cookies
		(name, value, domain, path, expires, secure, host_only, http_only)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Value, c.Domain, c.Path, expires, c.Secure, c.HostOnly, c.HTTPOnly)
	if err != nil {
		diag := log.Diag()
		diag.Warn().Err(err).Str("cookie", c.Name).Msg("could not persist cookie")
	}
}

// Cookies returns the stored cookies.
func (j *SQLiteJar) Cookies() []*Cookie {
	rows, err := j.db.Query(`SELECT name, value, domain, path, expires, secure, host_only, http_only
		FROM cookies ORDER BY rowid`)
	if err != nil {
		diag := log.Diag()
		diag.Warn().Err(err).Msg("could not read cookie jar")
		return nil
	}
	defer rows.Close()
	var out []*Cookie
	for rows.Next() {
		var c Cookie
		var expires int64
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &c.Secure, &c.HostOnly, &c.HTTPOnly); err != nil {
			continue
		}
		if expires != 0 {
			c.Expires = time.Unix(expires, 0).UTC()
		}
		out = append(out, &c)
	}
	return out
}

// ClearExpired evicts cookies expired at instant now and returns the
// number evicted.
func (j *SQLiteJar) ClearExpired(now time.Time) int {
	res, err := j.db.Exec("DELETE FROM cookies WHERE expires != 0 AND expires <= ?", now.Unix())
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// Close closes the underlying database.
func (j *SQLiteJar) Close() error {
	return j.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/homescout/listings-cli/internal/model"
	"github.com/homescout/listings-cli/internal/scorer"
	"github.com/homescout/listings-cli/internal/valuation"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	zpid       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	zip_code   TEXT,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS criteria (
	key      TEXT PRIMARY KEY,
	data     TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listing_scores (
	zpid      TEXT PRIMARY KEY REFERENCES listings(zpid),
	score     TEXT NOT NULL,
	scored_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS valuations (
	zpid        TEXT PRIMARY KEY,
	result      TEXT NOT NULL,
	computed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_listings_zip ON listings(zip_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertListings(ctx context.Context, listings []model.Listing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	count := 0
	for _, l := range listings {
		if l.ZPID == "" {
			continue
		}
		data, err := json.Marshal(l)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: marshal listing %s", l.ZPID)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO listings (zpid, data, zip_code, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(zpid) DO UPDATE SET data = excluded.data, zip_code = excluded.zip_code, updated_at = excluded.updated_at`,
			l.ZPID, string(data), l.ZipCode, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert listing %s", l.ZPID)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, eris.Wrap(err, "sqlite: commit")
	}
	return count, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	query := "SELECT data FROM listings"
	var args []any

	if len(filter.ZipCodes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.ZipCodes)), ",")
		query += fmt.Sprintf(" WHERE zip_code IN (%s)", placeholders)
		for _, z := range filter.ZipCodes {
			args = append(args, z)
		}
	}
	query += " ORDER BY zpid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		var l model.Listing
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal listing")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *SQLiteStore) ListListingIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT zpid FROM listings ORDER BY zpid")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listing ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) ReplaceCriteria(ctx context.Context, criteria []model.Criterion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM criteria"); err != nil {
		return eris.Wrap(err, "sqlite: clear criteria")
	}
	for i, c := range criteria {
		data, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal criterion %s", c.Key)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO criteria (key, data, position) VALUES (?, ?, ?)",
			c.Key, string(data), i,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert criterion %s", c.Key)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) ListCriteria(ctx context.Context) ([]model.Criterion, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM criteria ORDER BY position")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list criteria")
	}
	defer rows.Close()

	var criteria []model.Criterion
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan criterion")
		}
		var c model.Criterion
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal criterion")
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}

func (s *SQLiteStore) SaveScore(ctx context.Context, zpid string, score *scorer.AlignmentScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal score %s", zpid)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listing_scores (zpid, score, scored_at) VALUES (?, ?, ?)
		ON CONFLICT(zpid) DO UPDATE SET score = excluded.score, scored_at = excluded.scored_at`,
		zpid, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save score %s", zpid)
}

func (s *SQLiteStore) GetScore(ctx context.Context, zpid string) (*scorer.AlignmentScore, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT score FROM listing_scores WHERE zpid = ?", zpid).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score %s", zpid)
	}
	var score scorer.AlignmentScore
	if err := json.Unmarshal([]byte(data), &score); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal score %s", zpid)
	}
	return &score, nil
}

func (s *SQLiteStore) DeleteScores(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM listing_scores")
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete scores")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: delete scores rows affected")
}

func (s *SQLiteStore) SaveValuation(ctx context.Context, zpid string, result *valuation.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal valuation %s", zpid)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO valuations (zpid, result, computed_at) VALUES (?, ?, ?)
		ON CONFLICT(zpid) DO UPDATE SET result = excluded.result, computed_at = excluded.computed_at`,
		zpid, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save valuation %s", zpid)
}

func (s *SQLiteStore) GetValuation(ctx context.Context, zpid string) (*valuation.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT result FROM valuations WHERE zpid = ?", zpid).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get valuation %s", zpid)
	}
	var result valuation.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal valuation %s", zpid)
	}
	return &result, nil
}

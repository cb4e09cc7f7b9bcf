package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/homescout/listings-cli/internal/model"
	"github.com/homescout/listings-cli/internal/scorer"
	"github.com/homescout/listings-cli/internal/valuation"
)

// pgPool is the minimal pool surface the store uses, satisfied by both
// pgxpool.Pool and pgxmock.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgPool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool creates a PostgresStore from an existing pool.
// Used by tests to inject a mock.
func NewPostgresFromPool(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	zpid       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	zip_code   TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS criteria (
	key      TEXT PRIMARY KEY,
	data     JSONB NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listing_scores (
	zpid      TEXT PRIMARY KEY REFERENCES listings(zpid),
	score     JSONB NOT NULL,
	scored_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS valuations (
	zpid        TEXT PRIMARY KEY,
	result      JSONB NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_listings_zip ON listings(zip_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertListings(ctx context.Context, listings []model.Listing) (int, error) {
	count := 0
	for _, l := range listings {
		if l.ZPID == "" {
			continue
		}
		data, err := json.Marshal(l)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: marshal listing %s", l.ZPID)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO listings (zpid, data, zip_code, updated_at) VALUES ($1, $2, $3, now())
			ON CONFLICT (zpid) DO UPDATE SET data = EXCLUDED.data, zip_code = EXCLUDED.zip_code, updated_at = now()`,
			l.ZPID, data, l.ZipCode,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert listing %s", l.ZPID)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	query := "SELECT data FROM listings"
	var args []any
	argNum := 1

	if len(filter.ZipCodes) > 0 {
		query += fmt.Sprintf(" WHERE zip_code = ANY($%d)", argNum)
		args = append(args, filter.ZipCodes)
		argNum++
	}
	query += " ORDER BY zpid"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		var l model.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal listing")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *PostgresStore) ListListingIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT zpid FROM listings ORDER BY zpid")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listing ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) ReplaceCriteria(ctx context.Context, criteria []model.Criterion) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM criteria"); err != nil {
		return eris.Wrap(err, "postgres: clear criteria")
	}
	for i, c := range criteria {
		data, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal criterion %s", c.Key)
		}
		_, err = s.pool.Exec(ctx,
			"INSERT INTO criteria (key, data, position) VALUES ($1, $2, $3)",
			c.Key, data, i,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert criterion %s", c.Key)
		}
	}
	return nil
}

func (s *PostgresStore) ListCriteria(ctx context.Context) ([]model.Criterion, error) {
	rows, err := s.pool.Query(ctx, "SELECT data FROM criteria ORDER BY position")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list criteria")
	}
	defer rows.Close()

	var criteria []model.Criterion
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan criterion")
		}
		var c model.Criterion
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal criterion")
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}

func (s *PostgresStore) SaveScore(ctx context.Context, zpid string, score *scorer.AlignmentScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal score %s", zpid)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO listing_scores (zpid, score, scored_at) VALUES ($1, $2, now())
		ON CONFLICT (zpid) DO UPDATE SET score = EXCLUDED.score, scored_at = now()`,
		zpid, data,
	)
	return eris.Wrapf(err, "postgres: save score %s", zpid)
}

func (s *PostgresStore) GetScore(ctx context.Context, zpid string) (*scorer.AlignmentScore, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT score FROM listing_scores WHERE zpid = $1", zpid).Scan(&data)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score %s", zpid)
	}
	var score scorer.AlignmentScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal score %s", zpid)
	}
	return &score, nil
}

func (s *PostgresStore) DeleteScores(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM listing_scores")
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete scores")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) SaveValuation(ctx context.Context, zpid string, result *valuation.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal valuation %s", zpid)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO valuations (zpid, result, computed_at) VALUES ($1, $2, now())
		ON CONFLICT (zpid) DO UPDATE SET result = EXCLUDED.result, computed_at = now()`,
		zpid, data,
	)
	return eris.Wrapf(err, "postgres: save valuation %s", zpid)
}

func (s *PostgresStore) GetValuation(ctx context.Context, zpid string) (*valuation.Result, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT result FROM valuations WHERE zpid = $1", zpid).Scan(&data)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get valuation %s", zpid)
	}
	var result valuation.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal valuation %s", zpid)
	}
	return &result, nil
}

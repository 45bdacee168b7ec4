// Package db provides the persistence layer used by the web application. It
// wraps a SQLite database and exposes helper methods for storing music user
// tokens, a local mirror of submitted ratings and play history. The package is
// intentionally small; callers are expected to open a single DB instance using
// New and reuse it for all operations.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not exist
// it is created along with the required schema. The returned DB value wraps
// the sql.DB connection for use by the rest of the application.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_tokens (user_id TEXT PRIMARY KEY, music_user_token TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ratings (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id TEXT, item_kind TEXT, item_id TEXT, value INTEGER)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_user_item ON ratings(user_id, item_kind, item_id)`,
		`CREATE TABLE IF NOT EXISTS history (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id TEXT, item_id TEXT, genre_name TEXT, played_at TIMESTAMP)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// SaveUserToken persists the music user token for the given userID. If a
// token already exists it is replaced.
func (db *DB) SaveUserToken(ctx context.Context, userID, token string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO user_tokens(user_id, music_user_token) VALUES(?, ?) ON CONFLICT(user_id) DO UPDATE SET music_user_token=excluded.music_user_token`, userID, token)
	return err
}

// GetUserToken retrieves the music user token stored for userID.
// sql.ErrNoRows is returned when the user has never signed in.
func (db *DB) GetUserToken(ctx context.Context, userID string) (string, error) {
	var token string
	if err := db.QueryRowContext(ctx, `SELECT music_user_token FROM user_tokens WHERE user_id=?`, userID).Scan(&token); err != nil {
		return "", err
	}
	return token, nil
}

// Rating is the locally mirrored rating a user submitted for one catalog
// resource.
type Rating struct {
	ItemKind string
	ItemID   string
	Value    int
}

// SaveRating upserts the local mirror of a rating so the value can be read
// back without a platform round trip.
func (db *DB) SaveRating(ctx context.Context, userID, itemKind, itemID string, value int) error {
	_, err := db.ExecContext(ctx, `INSERT INTO ratings(user_id, item_kind, item_id, value) VALUES(?, ?, ?, ?) ON CONFLICT(user_id, item_kind, item_id) DO UPDATE SET value=excluded.value`, userID, itemKind, itemID, value)
	return err
}

// GetRating returns the mirrored rating for one resource. sql.ErrNoRows is
// returned when no rating has been stored.
func (db *DB) GetRating(ctx context.Context, userID, itemKind, itemID string) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT value FROM ratings WHERE user_id=? AND item_kind=? AND item_id=?`, userID, itemKind, itemID).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// ListRatings retrieves all mirrored ratings for the provided userID, most
// recently stored first.
func (db *DB) ListRatings(ctx context.Context, userID string) ([]Rating, error) {
	rows, err := db.QueryContext(ctx, `SELECT item_kind, item_id, value FROM ratings WHERE user_id=? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rs []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ItemKind, &r.ItemID, &r.Value); err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, rows.Err()
}

// DeleteRating removes the mirrored rating for one resource. sql.ErrNoRows is
// returned when the rating does not exist which allows callers to respond
// with a 404.
func (db *DB) DeleteRating(ctx context.Context, userID, itemKind, itemID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id=? AND item_kind=? AND item_id=?`, userID, itemKind, itemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddHistory inserts a listening event for the given user. playedAt should be
// the time the track was played and is stored as a timestamp.
func (db *DB) AddHistory(ctx context.Context, userID, itemID, genreName string, playedAt time.Time) error {
	_, err := db.ExecContext(ctx, `INSERT INTO history(user_id, item_id, genre_name, played_at) VALUES(?,?,?,?)`, userID, itemID, genreName, playedAt)
	return err
}

// GenreCount represents how many times a genre was played.
type GenreCount struct {
	Genre string
	Count int
}

// TopGenresSince returns the most played genres since the provided time.
func (db *DB) TopGenresSince(ctx context.Context, userID string, since time.Time) ([]GenreCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT genre_name, COUNT(*) c FROM history WHERE user_id=? AND played_at>=? GROUP BY genre_name ORDER BY c DESC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []GenreCount
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, err
		}
		res = append(res, gc)
	}
	return res, rows.Err()
}

// MonthCount groups play count totals by month in YYYY-MM format.
type MonthCount struct {
	Month string
	Count int
}

// MonthlyPlayCountsSince aggregates listening history per month starting from
// the provided time. Results are ordered chronologically.
func (db *DB) MonthlyPlayCountsSince(ctx context.Context, userID string, since time.Time) ([]MonthCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT strftime('%Y-%m', played_at) m, COUNT(*) c FROM history WHERE user_id=? AND played_at>=? GROUP BY m ORDER BY m`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		res = append(res, mc)
	}
	return res, rows.Err()
}

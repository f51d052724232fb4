package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/songzhibin97/cryptotherapist/internal/models"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema []string
	// rebind rewrites ? placeholders for drivers that number them.
	rebind func(string) string
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chats (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			message TEXT NOT NULL,
			is_bot BOOLEAN NOT NULL,
			personality TEXT NOT NULL DEFAULT '',
			meme_url TEXT,
			ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS chats_user_idx ON chats (user_id, ts, id)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			image_url TEXT NOT NULL,
			earned_at BIGINT NOT NULL
		)`,
	},
	rebind: func(q string) string {
		var b strings.Builder
		n := 0
		for _, r := range q {
			if r == '?' {
				n++
				fmt.Fprintf(&b, "$%d", n)
				continue
			}
			b.WriteRune(r)
		}
		return b.String()
	},
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			is_bot BOOLEAN NOT NULL,
			personality TEXT NOT NULL DEFAULT '',
			meme_url TEXT,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS chats_user_idx ON chats (user_id, ts, id)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			image_url TEXT NOT NULL,
			earned_at INTEGER NOT NULL
		)`,
	},
	rebind: func(q string) string { return q },
}

// SQLStorage persists turns and achievements in Postgres or SQLite. Timestamps are
// stored as unix nanoseconds so both drivers order them identically.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func NewPostgresStorage(connStr string) (*SQLStorage, error) {
	return openSQL(postgresDialect, connStr)
}

func NewSQLiteStorage(path string) (*SQLStorage, error) {
	s, err := openSQL(sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and writes serialized.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func openSQL(d dialect, dsn string) (*SQLStorage, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", d.driver)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", d.driver)
	}

	s := &SQLStorage{db: db, dialect: d, now: time.Now}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStorage) initTables() error {
	for _, query := range s.dialect.schema {
		if _, err := s.db.Exec(query); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}

// SaveTurns implements DataStorage interface. All turns are written in one transaction.
func (s *SQLStorage) SaveTurns(ctx context.Context, turns ...models.ConversationTurn) ([]models.ConversationTurn, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	query := s.dialect.rebind(`INSERT INTO chats (user_id, message, is_bot, personality, meme_url, ts)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	ts := s.now()
	saved := make([]models.ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		var meme sql.NullString
		if turn.MemeURL != nil {
			meme = sql.NullString{String: *turn.MemeURL, Valid: true}
		}

		err := tx.QueryRowContext(ctx, query,
			turn.UserID, turn.Text, turn.IsBot, turn.Personality, meme, ts.UnixNano(),
		).Scan(&turn.ID)
		if err != nil {
			return nil, errors.Wrap(err, "insert chat")
		}
		turn.Timestamp = time.Unix(0, ts.UnixNano())
		saved = append(saved, turn)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit chats")
	}
	return saved, nil
}

// GetTurns implements DataStorage interface
func (s *SQLStorage) GetTurns(ctx context.Context, userID int64) ([]models.ConversationTurn, error) {
	query := s.dialect.rebind(`SELECT id, user_id, message, is_bot, personality, meme_url, ts
FROM chats WHERE user_id = ? ORDER BY ts ASC, id ASC`)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	defer rows.Close()

	var out []models.ConversationTurn
	for rows.Next() {
		var (
			turn models.ConversationTurn
			meme sql.NullString
			ts   int64
		)
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.Text, &turn.IsBot, &turn.Personality, &meme, &ts); err != nil {
			return nil, errors.Wrap(err, "scan chat")
		}
		if meme.Valid {
			turn.MemeURL = &meme.String
		}
		turn.Timestamp = time.Unix(0, ts)
		out = append(out, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate chats")
	}
	return out, nil
}

// SaveAchievement implements DataStorage interface
func (s *SQLStorage) SaveAchievement(ctx context.Context, userID int64, draft models.AchievementDraft) (*models.StoredAchievement, error) {
	query := s.dialect.rebind(`INSERT INTO achievements (user_id, type, title, description, image_url, earned_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	earned := time.Unix(0, s.now().UnixNano())
	a := models.StoredAchievement{
		UserID:      userID,
		Type:        draft.Type,
		Title:       draft.Title,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		EarnedAt:    earned,
	}

	err := s.db.QueryRowContext(ctx, query,
		userID, draft.Type, draft.Title, draft.Description, draft.ImageURL, earned.UnixNano(),
	).Scan(&a.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert achievement")
	}
	return &a, nil
}

// GetAchievements implements DataStorage interface
func (s *SQLStorage) GetAchievements(ctx context.Context, userID int64) ([]models.StoredAchievement, error) {
	query := s.dialect.rebind(`SELECT id, user_id, type, title, description, image_url, earned_at
FROM achievements WHERE user_id = ? ORDER BY earned_at, id`)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list achievements")
	}
	defer rows.Close()

	var out []models.StoredAchievement
	for rows.Next() {
		var (
			a      models.StoredAchievement
			earned int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Description, &a.ImageURL, &earned); err != nil {
			return nil, errors.Wrap(err, "scan achievement")
		}
		a.EarnedAt = time.Unix(0, earned)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate achievements")
	}
	return out, nil
}

func (s *SQLStorage) Close() error { return s.db.Close() }

func (s *SQLStorage) String() string {
	return fmt.Sprintf("SQLStorage{%s %p}", s.dialect.driver, s.db)
}

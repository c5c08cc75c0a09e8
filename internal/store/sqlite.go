package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// SQLiteCache implements the Cache interface using a local SQLite
// database. The table is a byte-for-byte mirror of the store's
// collection, rewritten wholesale on every mutation.
type SQLiteCache struct {
	db *sqlx.DB
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *SQLiteCache) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// notificationRow is the sqlx scan target for the cache table.
type notificationRow struct {
	ID        string    `db:"id"`
	Sender    string    `db:"sender"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
	Type      string    `db:"type"`
	ActionURL string    `db:"action_url"`
	Priority  string    `db:"priority"`
	Read      bool      `db:"read"`
}

// Replace rewrites the cache table from the given collection in a
// single transaction.
func (c *SQLiteCache) Replace(ctx context.Context, items []model.Payload) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notification cache: %w", err)
	}

	const query = `
		INSERT INTO notifications (
			id, sender, title, content,
			timestamp, type, action_url, priority, read
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range items {
		read := p.Read != nil && *p.Read
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Sender, p.Title, p.Content,
			p.Timestamp.UTC(), p.Type, p.ActionURL, p.Priority, read,
		)
		if err != nil {
			return fmt.Errorf("caching notification %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads the cached collection in descending timestamp order.
func (c *SQLiteCache) Load(ctx context.Context) ([]model.Payload, error) {
	var rows []notificationRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT id, sender, title, content, timestamp, type, action_url, priority, read
		 FROM notifications ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading notification cache: %w", err)
	}

	items := make([]model.Payload, len(rows))
	for i, r := range rows {
		read := r.Read
		items[i] = model.Payload{
			ID:        r.ID,
			Sender:    r.Sender,
			Title:     r.Title,
			Content:   r.Content,
			Timestamp: r.Timestamp,
			Type:      r.Type,
			ActionURL: r.ActionURL,
			Priority:  r.Priority,
			Read:      &read,
		}
	}

	return items, nil
}

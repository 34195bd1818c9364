package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-modules/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS modules (
		user          TEXT NOT NULL,
		key           TEXT NOT NULL,
		identifier    TEXT NOT NULL,
		type          TEXT NOT NULL,
		record        TEXT NOT NULL,
		priority      INTEGER NOT NULL DEFAULT 5,
		archived      INTEGER NOT NULL DEFAULT 0,
		tags          TEXT,
		created_at    TEXT NOT NULL,
		last_updated  TEXT NOT NULL,
		last_accessed TEXT NOT NULL,
		PRIMARY KEY (user, key)
	);
	CREATE INDEX IF NOT EXISTS idx_modules_user_type ON modules(user, type);
	CREATE INDEX IF NOT EXISTS idx_modules_identifier ON modules(identifier);
	CREATE INDEX IF NOT EXISTS idx_modules_updated ON modules(last_updated DESC);

	CREATE TABLE IF NOT EXISTS module_events (
		id         TEXT PRIMARY KEY,
		user       TEXT NOT NULL,
		key        TEXT NOT NULL,
		kind       TEXT NOT NULL,
		detail     TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_user_key ON module_events(user, key);
	`
	_, err := s.db.Exec(schema)
	return err
}

const moduleColumns = `user, key, record`

// Load returns every module stored for user.
func (s *SQLiteStore) Load(ctx context.Context, user string) (model.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE user = ? ORDER BY key`, user)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", user, err)
	}
	defer rows.Close()

	c := model.Collection{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		c[r.Key] = r.Module
	}
	return c, rows.Err()
}

// Save upserts every module in c and deletes the user's rows that c no
// longer holds, in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, user string, c model.Collection) error {
	if user == "" {
		return errors.New("save: empty user")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := keysTx(ctx, tx, user)
	if err != nil {
		return err
	}
	for _, key := range existing {
		if c[key] != nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE user = ? AND key = ?`, user, key); err != nil {
			return fmt.Errorf("delete module %s: %w", key, err)
		}
	}

	for _, key := range c.Keys() {
		m := c[key]
		if m == nil {
			continue
		}
		if err := upsertTx(ctx, tx, user, key, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func keysTx(ctx context.Context, tx *sql.Tx, user string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT key FROM modules WHERE user = ?`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func upsertTx(ctx context.Context, tx *sql.Tx, user, key string, m *model.Module) error {
	record, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode module %s: %w", key, err)
	}
	var tagsJSON *string
	if len(m.Metadata.Tags) > 0 {
		b, _ := json.Marshal(m.Metadata.Tags)
		t := string(b)
		tagsJSON = &t
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO modules (user, key, identifier, type, record, priority, archived, tags, created_at, last_updated, last_accessed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user, key) DO UPDATE SET
		   identifier = excluded.identifier,
		   type = excluded.type,
		   record = excluded.record,
		   priority = excluded.priority,
		   archived = excluded.archived,
		   tags = excluded.tags,
		   created_at = excluded.created_at,
		   last_updated = excluded.last_updated,
		   last_accessed = excluded.last_accessed`,
		user, key, m.Identifier, string(m.Type), string(record), m.Metadata.Priority, boolInt(m.Metadata.Archived), tagsJSON,
		formatTime(m.Metadata.CreatedAt), formatTime(m.Metadata.LastUpdated), formatTime(m.LastSeen()))
	if err != nil {
		return fmt.Errorf("upsert module %s: %w", key, err)
	}
	return nil
}

// Get returns the module under key, or nil when there is none.
func (s *SQLiteStore) Get(ctx context.Context, user, key string) (*model.Module, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE user = ? AND key = ?`, user, key)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.Module, nil
}

// List returns modules matching p, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Record, error) {
	limit := p.Limit
	if limit == 0 {
		limit = 50
	}

	where := []string{"1 = 1"}
	args := []interface{}{}
	if p.User != "" {
		where = append(where, "user = ?")
		args = append(args, p.User)
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(p.Type))
	}
	if p.Archived != nil {
		where = append(where, "archived = ?")
		args = append(args, boolInt(*p.Archived))
	}
	for _, tag := range p.Tags {
		where = append(where, "tags LIKE ?")
		args = append(args, "%\""+tag+"\"%")
	}

	query := fmt.Sprintf(`SELECT %s FROM modules WHERE %s ORDER BY last_updated DESC, user, key LIMIT ?`,
		moduleColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryRecords(ctx, query, args...)
}

// Remove deletes one module.
func (s *SQLiteStore) Remove(ctx context.Context, user, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE user = ? AND key = ?`, user, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r      Record
		record string
	)
	if err := sc.Scan(&r.User, &r.Key, &record); err != nil {
		return Record{}, err
	}
	m := &model.Module{}
	if err := json.Unmarshal([]byte(record), m); err != nil {
		return Record{}, fmt.Errorf("decode module %s/%s: %w", r.User, r.Key, err)
	}
	r.Module = m
	return r, nil
}

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath          string         `json:"db_path"`
	DBSizeBytes     int64          `json:"db_size_bytes"`
	TotalModules    int            `json:"total_modules"`
	ActiveModules   int            `json:"active_modules"`
	ArchivedModules int            `json:"archived_modules"`
	TotalEvents     int            `json:"total_events"`
	Types           map[string]int `json:"types"`
	Users           []UserStats    `json:"users"`
}

// UserStats holds per-user counts.
type UserStats struct {
	User   string `json:"user"`
	Count  int    `json:"count"`
	Active int    `json:"active"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Types: map[string]int{}}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules`).Scan(&st.TotalModules)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules WHERE archived = 0`).Scan(&st.ActiveModules)
	st.ArchivedModules = st.TotalModules - st.ActiveModules
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM module_events`).Scan(&st.TotalEvents)

	typeRows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM modules GROUP BY type`)
	if err != nil {
		return st, err
	}
	for typeRows.Next() {
		var (
			t string
			n int
		)
		typeRows.Scan(&t, &n)
		st.Types[t] = n
	}
	typeRows.Close()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user, COUNT(*) AS cnt, SUM(CASE WHEN archived = 0 THEN 1 ELSE 0 END) AS active
		FROM modules GROUP BY user ORDER BY cnt DESC, user`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserStats
		rows.Scan(&u.User, &u.Count, &u.Active)
		st.Users = append(st.Users, u)
	}

	return st, nil
}

package store

import (
	"context"

	"github.com/rcliao/agent-modules/internal/model"
)

// Users returns every user with stored modules, sorted.
func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user FROM modules ORDER BY user`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// LoadAll returns every user's collection, optionally limited to one user.
func (s *SQLiteStore) LoadAll(ctx context.Context, user string) (map[string]model.Collection, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules`
	args := []interface{}{}
	if user != "" {
		query += ` WHERE user = ?`
		args = append(args, user)
	}
	query += ` ORDER BY user, key`

	records, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := map[string]model.Collection{}
	for _, r := range records {
		c, ok := out[r.User]
		if !ok {
			c = model.Collection{}
			out[r.User] = c
		}
		c[r.Key] = r.Module
	}
	return out, nil
}

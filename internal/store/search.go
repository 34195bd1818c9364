package store

import (
	"context"
	"fmt"
	"strings"
)

// Search finds modules whose key, identifier or data contain the query
// substring, ignoring case. Archived modules are included.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	q := "%" + strings.ToLower(p.Query) + "%"
	where := []string{"(lower(key) LIKE ? OR lower(identifier) LIKE ? OR lower(json_extract(record, '$.data')) LIKE ?)"}
	args := []interface{}{q, q, q}

	if p.User != "" {
		where = append(where, "user = ?")
		args = append(args, p.User)
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(p.Type))
	}

	query := fmt.Sprintf(`SELECT %s FROM modules WHERE %s ORDER BY archived, last_accessed DESC LIMIT ?`,
		moduleColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryRecords(ctx, query, args...)
}

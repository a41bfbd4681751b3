package data

import (
	"database/sql"
	"fmt"
	"strings"
)

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// clampPage applies the default and maximum page size and rejects negative offsets.
func clampPage(limit, offset, def, maxLimit int) (uint64, uint64) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uint64(limit), uint64(offset)
}

// requireAffected returns notFound when the statement touched no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

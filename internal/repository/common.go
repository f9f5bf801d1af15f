package repository

import (
	"strings"

	"gorm.io/gorm"
)

// searchPattern builds a case-insensitive LIKE pattern. LOWER(..) LIKE is used
// instead of ILIKE so the same queries run on PostgreSQL and SQLite.
func searchPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// paginate applies offset and limit for a 1-based page
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return query.Offset(offset).Limit(pageSize)
}

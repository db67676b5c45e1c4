package database

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// QueryBuilder collects WHERE conditions with gorm "?" placeholders.
// Column names and SQL fragments are always constants from this package; only values come from callers.
type QueryBuilder struct {
	conditions []string
	args       []interface{}
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		conditions: []string{},
		args:       []interface{}{},
	}
}

func (qb *QueryBuilder) AddCondition(column string, value interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = ?", column))
	qb.args = append(qb.args, value)
}

// AddContains matches column case-insensitively against term as a substring.
// LIKE wildcards inside term are escaped so "50%" matches literally.
func (qb *QueryBuilder) AddContains(column, term string) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s ILIKE ?", column))
	qb.args = append(qb.args, containsPattern(term))
}

// AddExpr appends a raw SQL condition that carries its own placeholders.
func (qb *QueryBuilder) AddExpr(expr string, args ...interface{}) {
	qb.conditions = append(qb.conditions, expr)
	qb.args = append(qb.args, args...)
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}

// Helper functions

func containsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func validateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

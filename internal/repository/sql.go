package repository

import (
	"context"
	"database/sql"
	"strings"
)

// querier is implemented by both *sql.DB and *sql.Tx so helpers can run
// in or out of a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// anyLike writes "(LOWER(c1) LIKE ? OR LOWER(c2) LIKE ? ...)" for every
// term/column pair and returns the matching args.
func anyLike(b *strings.Builder, columns []string, terms []string) []any {
	args := make([]any, 0, len(columns)*len(terms))
	b.WriteString("(")
	first := true
	for _, term := range terms {
		pattern := containsPattern(term)
		for _, col := range columns {
			if !first {
				b.WriteString(" OR ")
			}
			first = false
			b.WriteString("LOWER(")
			b.WriteString(col)
			b.WriteString(") LIKE ?")
			args = append(args, pattern)
		}
	}
	b.WriteString(")")
	return args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

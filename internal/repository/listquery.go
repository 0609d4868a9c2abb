package repository

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/store-rating/internal/model"
)

// ListQuery carries the caller-supplied search, filter and sort parameters
// of list endpoints.  Field and SortBy are looked up in per-endpoint
// allow-lists and never reach SQL verbatim; unknown values are ignored.
type ListQuery struct {
	Search    string
	Field     string
	Role      string
	SortBy    string
	SortOrder string
}

// columns maps an accepted request name to a safe column reference.
type columns map[string]string

// likeEscaper escapes LIKE wildcards so a search for "50%" matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchClause returns a case-insensitive substring predicate.  An empty
// Field searches every column in defaults; an unknown Field disables the
// search instead of failing.
func searchClause(q ListQuery, searchable columns, defaults []string) (string, []any) {
	term := strings.TrimSpace(q.Search)
	if term == "" {
		return "", nil
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"

	field := strings.TrimSpace(q.Field)
	if field == "" {
		parts := make([]string, 0, len(defaults))
		args := make([]any, 0, len(defaults))
		for _, name := range defaults {
			parts = append(parts, "LOWER("+searchable[name]+") LIKE ?")
			args = append(args, pattern)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	}
	col, ok := searchable[field]
	if !ok {
		return "", nil
	}
	return "LOWER(" + col + ") LIKE ?", []any{pattern}
}

// roleClause filters on an exact role; anything that is not a known role
// is ignored.
func roleClause(q ListQuery, col string) (string, []any) {
	role, err := model.ParseRole(strings.TrimSpace(q.Role))
	if err != nil {
		return "", nil
	}
	return col + " = ?", []any{string(role)}
}

// orderClause resolves SortBy/SortOrder against the allow-list.  Unknown
// names or directions fall back to the default ordering.
func orderClause(q ListQuery, sortable columns, fallback string) string {
	col, ok := sortable[strings.TrimSpace(q.SortBy)]
	if !ok {
		return " ORDER BY " + fallback
	}
	switch strings.ToLower(strings.TrimSpace(q.SortOrder)) {
	case "", "asc":
		return " ORDER BY " + col + " ASC, " + fallback
	case "desc":
		return " ORDER BY " + col + " DESC, " + fallback
	}
	return " ORDER BY " + fallback
}

// whereSQL joins non-empty predicates with AND.
func whereSQL(preds []string) string {
	out := make([]string, 0, len(preds))
	for _, p := range preds {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(out, " AND ")
}

// Round1 rounds an average to one decimal place for display.
func Round1(f float64) float64 {
	return decimal.NewFromFloat(f).Round(1).InexactFloat64()
}

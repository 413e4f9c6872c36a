package tickets

import (
	"strings"

	"github.com/uptrace/bun"
)

// Filters is the optional predicate set for ticket listings. Every field is
// independently optional; the compiled query is the conjunction of whatever
// is set.
type Filters struct {
	Status     string `query:"status"`
	StatusNot  string `query:"status_not"`
	Visibility string `query:"visibility"`
	Search     string `query:"search"`
}

// searchColumns are the text columns a free-text search scans.
var searchColumns = []string{
	"title",
	"slug",
	"background",
	"learned",
	"roadblocks_summary",
	"metrics_summary",
}

// Criteria compiles the filters into select clauses, left to right, ANDed
// together. Search splits into lowercase tokens: a row matches when every
// token appears in at least one of the text columns.
func (f Filters) Criteria() []func(*bun.SelectQuery) *bun.SelectQuery {
	var criteria []func(*bun.SelectQuery) *bun.SelectQuery

	if f.Status != "" {
		status := f.Status
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status = ?", status)
		})
	}

	if f.StatusNot != "" {
		statusNot := f.StatusNot
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status != ?", statusNot)
		})
	}

	if strings.TrimSpace(f.Visibility) != "" {
		visibility := f.Visibility
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.visibility = ?", visibility)
		})
	}

	for _, token := range searchTokens(f.Search) {
		like := "%" + token + "%"
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				for _, col := range searchColumns {
					q = q.WhereOr("lower(?TableAlias."+col+") LIKE ?", like)
				}
				return q
			})
		})
	}

	return criteria
}

func searchTokens(search string) []string {
	search = strings.TrimSpace(strings.ToLower(search))
	if search == "" {
		return nil
	}
	return strings.Fields(search)
}

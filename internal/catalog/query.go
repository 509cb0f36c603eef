package catalog

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cellhub/internal/filter"
	"cellhub/internal/portal"
	"cellhub/pkg/models"
)

// parseListQuery reads filters and paging from the query string. Category
// values may repeat (tissue=lung&tissue=heart) or be comma separated.
func parseListQuery(c *gin.Context) portal.ListQuery {
	q := portal.ListQuery{
		Q:         strings.TrimSpace(c.Query("q")),
		Selection: parseSelection(c),
		Sort:      portal.SortRecency,
		Desc:      true,
		Limit:     parseInt(c.Query("limit"), portal.DefaultLimit),
		Offset:    parseInt(c.Query("offset"), 0),
	}

	// recency lists newest first, names list A to Z
	if c.Query("sort") == portal.SortName {
		q.Sort = portal.SortName
		q.Desc = false
	}
	switch strings.ToLower(c.Query("order")) {
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	}
	return q.Normalize()
}

func parseSelection(c *gin.Context) filter.Selection {
	sel := filter.Selection{Categories: make(map[models.CategoryKey][]string)}
	for _, key := range models.CategoryKeys {
		if values := queryList(c, string(key)); len(values) > 0 {
			sel.Categories[key] = values
		}
	}

	var r filter.Range
	if n, ok := parseInt64(c.Query("min_cell_count")); ok {
		r.Min = &n
	}
	if n, ok := parseInt64(c.Query("max_cell_count")); ok {
		r.Max = &n
	}
	if r.Min != nil || r.Max != nil {
		sel.CellCount = &r
	}
	return sel
}

func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseInt64(s string) (int64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

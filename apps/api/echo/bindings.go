package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dewinurmalitasari/geoviz-server/core"
)

var orderingParam = "ordering"

// Ordering binds the "ordering" query param: a comma separated list of fields, "-" prefixed for
// descending order. e.g. `?ordering=-created_at,title`
type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind keeps the fields among allowed and silently drops the others.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]bool) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !allowed[field] {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
